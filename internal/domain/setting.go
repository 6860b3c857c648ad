package domain

import "time"

// Setting is a persisted admin interface setting.
type Setting struct {
	Name      string    `json:"name" db:"name"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SettingChange records one accepted change to a setting.
type SettingChange struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OldValue  string    `json:"old_value" db:"old_value"`
	NewValue  string    `json:"new_value" db:"new_value"`
	Outcome   string    `json:"outcome" db:"outcome"`
	Actor     string    `json:"actor" db:"actor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UpdateSettingRequest is the body of a setting update.
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// UpdateSettingResponse reports the result of a setting update.
type UpdateSettingResponse struct {
	Name            string `json:"name"`
	Value           string `json:"value"`
	Outcome         string `json:"outcome"`
	RestartRequired bool   `json:"restart_required"`
}

// SettingsResponse lists every setting with its current effective value.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
	Defaults map[string]string `json:"defaults"`
}
