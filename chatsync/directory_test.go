package chatsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthcare-chat/apperror"
)

func TestStartChatTwiceYieldsSameRoom(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	directory := NewRoomDirectory(collab, newTestSession(t, doctorID), quietLogger(), time.Second)

	first, err := directory.StartChat(ctx, patientID)
	require.NoError(t, err)
	second, err := directory.StartChat(ctx, patientID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rooms, err := directory.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.NotNil(t, rooms[0].OtherUser)
	assert.Equal(t, patientID, rooms[0].OtherUser.ID)
}

func TestStartChatWithSelfIsRejectedLocally(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	directory := NewRoomDirectory(collab, newTestSession(t, doctorID), quietLogger(), time.Second)

	_, err := directory.StartChat(context.Background(), doctorID)
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, collab.count("StartChat"))
}

func TestFindPrivateRoomUsesLastSnapshot(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(doctorID)
	directory := NewRoomDirectory(collab, newTestSession(t, doctorID), quietLogger(), time.Second)

	var invalidations atomic.Int32
	directory.OnInvalidate(func() { invalidations.Add(1) })

	roomID, err := directory.StartChat(ctx, nurseID)
	require.NoError(t, err)
	_, found := directory.FindPrivateRoom(nurseID)
	assert.False(t, found)
	assert.Equal(t, int32(1), invalidations.Load())

	_, err = directory.ListRooms(ctx)
	require.NoError(t, err)
	cached, found := directory.FindPrivateRoom(nurseID)
	assert.True(t, found)
	assert.Equal(t, roomID, cached)

	_, err = directory.StartChat(ctx, nurseID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), invalidations.Load())

	_, found = directory.FindPrivateRoom(patientID)
	assert.False(t, found)
}

func TestStartChatWithUnknownUserIsNotFound(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	directory := NewRoomDirectory(collab, newTestSession(t, doctorID), quietLogger(), time.Second)

	_, err := directory.StartChat(context.Background(), 404)
	assert.True(t, apperror.IsNotFound(err))
}
