package moderation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// MockHistory is a mock implementation of HistorySource
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Walk(ctx context.Context, channelID ledger.ID, limit int, visit func(Message) error) error {
	args := m.Called(ctx, channelID, limit)
	if msgs, ok := args.Get(0).([]Message); ok {
		for _, msg := range msgs {
			if err := visit(msg); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func TestBackfillLinks_PassesScanLimit(t *testing.T) {
	svc, _, _ := newService(t, 250)
	src := new(MockHistory)
	src.On("Walk", mock.Anything, linkChannel, 250).Return([]Message{
		{AuthorID: 1, Content: "https://x.com/a/status/1"},
	}, nil).Once()

	res := svc.BackfillLinks(context.Background(), linkChannel, src)
	assert.Equal(t, 1, res.Accepted)
	assert.NotEqual(t, uuid.Nil, res.ScanID)
	src.AssertExpectations(t)
}

func TestBackfillMedia_TimeoutIsPartial(t *testing.T) {
	svc, st, _ := newService(t, 0)
	src := new(MockHistory)
	src.On("Walk", mock.Anything, mediaChannel, 0).Return([]Message{
		{AuthorID: 1, HasAttachmentOrEmbed: true},
		{AuthorID: 1, HasAttachmentOrEmbed: true},
	}, context.DeadlineExceeded).Once()

	res := svc.BackfillMedia(context.Background(), mediaChannel, src)
	assert.True(t, res.Partial)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, 2, res.Processed)

	rec, ok := st.Record(1)
	assert.True(t, ok)
	assert.Equal(t, 2, rec.ArtCount)
	src.AssertExpectations(t)
}
