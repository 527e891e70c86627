package patternml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// SaveArtifact serializes the model to path as versioned JSON.  The write
// goes through a temp file and rename so a concurrent reader never observes
// a half-written artifact.
func SaveArtifact(model *Model, path string) error {
	if model == nil {
		return apperrors.New(apperrors.ErrCodeModelArtifactInvalid, "model is nil")
	}
	if err := model.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(model)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelArtifactInvalid, "model does not serialize")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot create artifact directory")
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot write artifact")
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "cannot move artifact into place")
	}
	return nil
}

// LoadArtifact reads and validates a model artifact.
func LoadArtifact(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeModelNotAvailable,
				fmt.Sprintf("model artifact %s not found", path))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelArtifactInvalid,
			fmt.Sprintf("model artifact %s unreadable", path))
	}

	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelArtifactInvalid,
			"model artifact is not valid JSON")
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}
