package synccmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const syncTreeMessageType = "wikisync.sync.tree"

// SyncTreeCommand mirrors a DOCX directory tree into the configured space.
type SyncTreeCommand struct {
	// Directory is the local root whose subfolders become folder pages.
	Directory string `json:"directory"`
	// RootPageID parents the top-level folders. Empty creates them at the space root.
	RootPageID string `json:"root_page_id,omitempty"`
	// DryRun runs against an in-memory directory instead of the remote wiki.
	DryRun bool `json:"dry_run,omitempty"`
	// SkipIntro ignores README.md files when building folder pages.
	SkipIntro bool `json:"skip_intro,omitempty"`
	// Strict turns per-unit failures into a command error.
	Strict bool `json:"strict,omitempty"`
}

// Type implements command.Message.
func (SyncTreeCommand) Type() string { return syncTreeMessageType }

// Validate ensures a directory is supplied before handlers execute.
func (cmd SyncTreeCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("wikisync.sync.tree.directory_required", "directory is required")
			}
			return nil
		})),
		validation.Field(&cmd.RootPageID, validation.By(func(value any) error {
			id := value.(string)
			if id != "" && strings.TrimSpace(id) == "" {
				return validation.NewError("wikisync.sync.tree.root_page_blank", "root page id cannot be blank")
			}
			return nil
		})),
	)
}
