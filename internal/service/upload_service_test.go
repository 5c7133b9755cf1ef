package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newUploadService(t *testing.T, cfg UploadServiceConfig) (*UploadService, *storage.SignedURLSigner) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	return NewUploadService(store, signer, nil, cfg), signer
}

func TestUploadServiceStoresAllowedFile(t *testing.T) {
	svc, signer := newUploadService(t, UploadServiceConfig{})

	resp, err := svc.Upload(context.Background(), "Card.PNG", bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.True(t, strings.HasPrefix(resp.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+resp.Key, resp.URL)
	assert.Equal(t, int64(len(pngHeader)), resp.Size)

	token, _, err := signer.Generate("u1", resp.Key)
	require.NoError(t, err)
	rc, key, err := svc.OpenSigned(context.Background(), token)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, resp.Key, key)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)
}

func TestUploadServiceRejects(t *testing.T) {
	svc, _ := newUploadService(t, UploadServiceConfig{MaxFileSize: 16})

	_, err := svc.Upload(context.Background(), "card.png", bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = svc.Upload(context.Background(), "script.sh", strings.NewReader("#!/bin/sh"), 9)
	require.ErrorIs(t, err, appErrors.ErrUnsupportedMedia)

	_, err = svc.Upload(context.Background(), "empty.png", strings.NewReader(""), 0)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.OpenSigned(context.Background(), "bogus.token.value.sig")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
