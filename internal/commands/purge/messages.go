package purgecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const purgeMessageType = "wikisync.purge.non_docx"

// PurgeCommand deletes every non-.docx file below Directory.
type PurgeCommand struct {
	Directory string `json:"directory"`
	// AssumeYes skips the confirmation prompt.
	AssumeYes bool `json:"assume_yes,omitempty"`
}

// Type implements command.Message.
func (PurgeCommand) Type() string { return purgeMessageType }

// Validate ensures a directory is supplied before handlers execute.
func (cmd PurgeCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("wikisync.purge.directory_required", "directory is required")
			}
			return nil
		})),
	)
}
