package audiotag

import (
	"github.com/simonhull/audiotag/internal/types"
)

// FileProperties is an alias to types.FileProperties.
// It describes the audio stream; zero fields are unknown.
type FileProperties = types.FileProperties
