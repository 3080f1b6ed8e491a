package dto

import "github.com/aarondl/null/v8"

type UpdateSettingsDTO struct {
	AutocompleteRepairs null.Bool `json:"autocomplete_repairs,omitempty"`
	CheckinQueueID      null.Int  `json:"checkin_queue_id,omitempty"`
	NotifySMS           null.Bool `json:"notify_sms,omitempty"`
	NotifyEmail         null.Bool `json:"notify_email,omitempty"`
}
