package services

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/tokens"
)

// TutorialCodec mints and reads file-index tokens.
type TutorialCodec interface {
	Encode(purpose tokens.Purpose, value int) (string, error)
	Decode(purpose tokens.Purpose, token string) (int, bool)
}

// TutorialFiles serves a small fixed set of practice files that any
// requested index wraps around.
type TutorialFiles struct {
	count int
	ext   string
	codec TutorialCodec
}

func NewTutorialFiles(count int, ext string, codec TutorialCodec) *TutorialFiles {
	return &TutorialFiles{count: count, ext: ext, codec: codec}
}

// Resolve maps (fileType, rawIndex) to a tutorial file. "data" is accepted
// as an alias of "file". A valid file token overrides rawIndex.
func (t *TutorialFiles) Resolve(fileType, rawIndex, token string) (models.TutorialDelivery, error) {
	if fileType == "data" {
		fileType = models.FileTypeData
	}
	if fileType != models.FileTypeData && fileType != models.FileTypeModels {
		return models.TutorialDelivery{}, fmt.Errorf("%w: unknown file type %q", common.ErrorValidation, fileType)
	}

	index, ok := t.codec.Decode(tokens.PurposeFile, token)
	if !ok {
		var err error
		index, err = strconv.Atoi(rawIndex)
		if err != nil {
			return models.TutorialDelivery{}, fmt.Errorf("%w: invalid file index %q", common.ErrorValidation, rawIndex)
		}
	}

	fileID := ((index % t.count) + t.count) % t.count

	next, err := t.codec.Encode(tokens.PurposeFile, index+1)
	if err != nil {
		return models.TutorialDelivery{}, err
	}

	return models.TutorialDelivery{
		FileID:    fileID,
		FileType:  fileType,
		FileName:  FileName(fileType, fileID, t.ext),
		NextToken: next,
	}, nil
}
