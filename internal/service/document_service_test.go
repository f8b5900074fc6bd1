package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/settlewise/case-service/internal/blobstore"
	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMaxUpload = 10 << 20

func documentFixture(t *testing.T) (*gorm.DB, *TicketService, *DocumentService) {
	t.Helper()
	db := testDB(t)
	tickets := NewTicketService(db)
	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	return db, tickets, NewDocumentService(db, tickets, blobs, testMaxUpload)
}

func TestUploadDocument(t *testing.T) {
	db, tickets, docs := documentFixture(t)
	owner := seedUser(t, db, "alice", model.RoleUser)
	ticket := seedTicket(t, db, tickets, owner)

	doc, err := docs.Upload(context.Background(), owner, ticket.ID, "paystub.pdf", 1024, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusPending, doc.Status)
	assert.Equal(t, "paystub.pdf", doc.Name)
	assert.True(t, strings.HasPrefix(doc.FileURL, "/files/"))
	assert.True(t, strings.HasSuffix(doc.FileURL, ".pdf"))
	assert.EqualValues(t, 2, countEvents(t, db, ticket.ID), "upload appends an event")
}

func TestUploadDocumentValidation(t *testing.T) {
	db, tickets, docs := documentFixture(t)
	owner := seedUser(t, db, "alice", model.RoleUser)
	stranger := seedUser(t, db, "mallory", model.RoleUser)
	ticket := seedTicket(t, db, tickets, owner)

	_, err := docs.Upload(context.Background(), owner, ticket.ID, "malware.exe", 10, strings.NewReader("MZ"))
	assert.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = docs.Upload(context.Background(), owner, ticket.ID, "huge.pdf", testMaxUpload+1, strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrPayloadTooLarge)

	_, err = docs.Upload(context.Background(), owner, ticket.ID, "  ", 10, strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = docs.Upload(context.Background(), stranger, ticket.ID, "scan.png", 10, strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = docs.Upload(context.Background(), owner, "00000000-0000-0000-0000-000000000000", "scan.png", 10, strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
}

// recordingStore stands in for the blob store and records what was
// saved and removed.
type recordingStore struct {
	saved   []string
	removed []string
}

func (r *recordingStore) Save(name string, _ io.Reader) (string, error) {
	url := "/files/" + name
	r.saved = append(r.saved, url)
	return url, nil
}

func (r *recordingStore) Remove(fileURL string) error {
	r.removed = append(r.removed, fileURL)
	return nil
}

func TestUploadRemovesBlobOnFailure(t *testing.T) {
	db := testDB(t)
	tickets := NewTicketService(db)
	store := &recordingStore{}
	docs := NewDocumentService(db, tickets, store, testMaxUpload)
	owner := seedUser(t, db, "alice", model.RoleUser)
	ticket := seedTicket(t, db, tickets, owner)

	// Make the document insert fail after the blob has been stored.
	require.NoError(t, db.Migrator().DropTable(&model.Document{}))

	_, err := docs.Upload(context.Background(), owner, ticket.ID, "paystub.pdf", 1024, strings.NewReader("%PDF-1.4"))
	require.Error(t, err)
	require.Len(t, store.saved, 1)
	assert.Equal(t, store.saved, store.removed, "failed upload removes the stored blob")
}

func TestReviewDocumentApprove(t *testing.T) {
	db, tickets, docs := documentFixture(t)
	owner := seedUser(t, db, "alice", model.RoleUser)
	admin := seedUser(t, db, "root", model.RoleAdmin)
	ticket := seedTicket(t, db, tickets, owner)

	doc, err := docs.Upload(context.Background(), owner, ticket.ID, "id.jpg", 512, strings.NewReader("jpeg"))
	require.NoError(t, err)

	reviewed, err := docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusApproved, reviewed.Status)
	assert.Empty(t, reviewed.RejectionReason)
	assert.EqualValues(t, 3, countEvents(t, db, ticket.ID))
}

func TestReviewDocumentReject(t *testing.T) {
	db, tickets, docs := documentFixture(t)
	owner := seedUser(t, db, "alice", model.RoleUser)
	admin := seedUser(t, db, "root", model.RoleAdmin)
	ticket := seedTicket(t, db, tickets, owner)

	doc, err := docs.Upload(context.Background(), owner, ticket.ID, "scan.png", 512, strings.NewReader("png"))
	require.NoError(t, err)

	// Rejection without a reason is refused and leaves the document pending.
	_, err = docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusRejected, "")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusRejected, "   ")
	assert.ErrorIs(t, err, errs.ErrValidation)

	var pending model.Document
	require.NoError(t, db.First(&pending, "id = ?", doc.ID).Error)
	assert.Equal(t, model.DocumentStatusPending, pending.Status)

	reviewed, err := docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusRejected, "Illegible scan")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusRejected, reviewed.Status)
	assert.Equal(t, "Illegible scan", reviewed.RejectionReason)
}

func TestReviewDocumentGuards(t *testing.T) {
	db, tickets, docs := documentFixture(t)
	owner := seedUser(t, db, "alice", model.RoleUser)
	admin := seedUser(t, db, "root", model.RoleAdmin)
	ticket := seedTicket(t, db, tickets, owner)

	doc, err := docs.Upload(context.Background(), owner, ticket.ID, "id.jpeg", 512, strings.NewReader("jpeg"))
	require.NoError(t, err)

	_, err = docs.Review(context.Background(), owner, ticket.ID, doc.ID, model.DocumentStatusApproved, "")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = docs.Review(context.Background(), admin, ticket.ID, doc.ID, "SHREDDED", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = docs.Review(context.Background(), admin, ticket.ID, "00000000-0000-0000-0000-000000000000", model.DocumentStatusApproved, "")
	assert.ErrorIs(t, err, errs.ErrDocumentNotFound)

	// A decision is final; re-review is refused.
	_, err = docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusApproved, "")
	require.NoError(t, err)
	_, err = docs.Review(context.Background(), admin, ticket.ID, doc.ID, model.DocumentStatusRejected, "changed my mind")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}
