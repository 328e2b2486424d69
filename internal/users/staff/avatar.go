// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package staff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/pkg/uuid"
)

const (
	avatarPrefix = "avatars"
	fieldAvatar  = "avatar"
)

// avatarTypes maps accepted extensions to the content type their bytes must sniff as.
var avatarTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// avatarNameRegex matches stored avatar names: "<unix>_<id>.<ext>".
var avatarNameRegex = regexp.MustCompile(`^\d+_[0-9A-Za-z-]+\.(jpe?g|png|gif)$`)

// Upload is an avatar file received from the client.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// checkAvatar validates an upload and returns its extension and a reader that
// still yields the full content.
func checkAvatar(upload *Upload, maxSize int64) (string, io.Reader, error) {
	extension := strings.ToLower(strings.TrimPrefix(path.Ext(upload.Filename), "."))
	expected, ok := avatarTypes[extension]
	if !ok {
		return "", nil, validate.RequiredError(fieldAvatar, "The avatar must be a file of type: jpeg, png, jpg, gif.")
	}

	if upload.Size > maxSize {
		return "", nil, validate.RequiredError(fieldAvatar,
			fmt.Sprintf("The avatar may not be greater than %d kilobytes.", maxSize/1024))
	}

	head := make([]byte, 512)
	read, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, apperr.Internal(err)
	}
	head = head[:read]

	if http.DetectContentType(head) != expected {
		return "", nil, validate.RequiredError(fieldAvatar, "The avatar must be an image.")
	}

	return extension, io.MultiReader(bytes.NewReader(head), upload.Content), nil
}

// avatarName builds a collision-free stored name.
func avatarName(now time.Time, extension string) string {
	return fmt.Sprintf("%d_%s.%s", now.Unix(), uuid.New(), extension)
}

func avatarKey(name string) string {
	return avatarPrefix + "/" + name
}

// ValidAvatarName reports whether name looks like a stored avatar file name.
func ValidAvatarName(name string) bool {
	return avatarNameRegex.MatchString(name)
}
