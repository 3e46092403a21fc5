package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestRegisterAttachmentNaming(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	first, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTagIssue, ".PNG")
	require.NoError(t, err)
	assert.Equal(t, "T250300001_issue_001.png", first.StoredName)

	second, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTagIssue, "")
	require.NoError(t, err)
	assert.Equal(t, "T250300001_issue_002", second.StoredName)

	resolution, err := env.attachments.Register(context.Background(), env.admin, ticket.ID, domain.AttachmentTagResolution, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "T250300001_resolution_001.pdf", resolution.StoredName)

	list, err := env.attachments.ListByTicket(context.Background(), env.reporter, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRegisterAttachmentRules(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	tests := []struct {
		name string
		run  func() error
		code string
	}{
		{"bad extension", func() error {
			_, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTagIssue, "tar.gz")
			return err
		}, apperrors.CodeValidation},
		{"bad tag", func() error {
			_, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTag("draft"), "png")
			return err
		}, apperrors.CodeValidation},
		{"reporter resolution", func() error {
			_, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTagResolution, "png")
			return err
		}, apperrors.CodeForbidden},
		{"foreign ticket", func() error {
			_, err := env.attachments.Register(context.Background(), env.other, ticket.ID, domain.AttachmentTagIssue, "png")
			return err
		}, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestRegisterAttachmentConcurrently(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.create(t, env.reporter)

	const uploads = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		names = map[string]bool{}
	)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := env.attachments.Register(context.Background(), env.reporter, ticket.ID, domain.AttachmentTagIssue, "jpg")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			names[a.StoredName] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, names, uploads)
}
