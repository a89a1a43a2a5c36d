package chatsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"healthcare-chat/apperror"
	"healthcare-chat/enum"
)

func newTestFriendManager(t *testing.T, collab *fakeCollaborator, me int64) *FriendManager {
	t.Helper()
	return NewFriendManager(collab, newTestSession(t, me), quietLogger(), time.Second)
}

func TestFriendRequestToExistingPendingEdgeIsSoftSuccess(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(patientID)
	friends := newTestFriendManager(t, collab, patientID)
	_, err := collab.addEdge(doctorID, patientID)
	require.NoError(t, err)

	incoming, err := friends.ListIncomingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, incoming, 1)

	result, err := friends.SendFriendRequest(ctx, doctorID)
	require.NoError(t, err)
	assert.Equal(t, SendStatusAlreadyExists, result.Status)
	assert.Nil(t, result.Edge)

	incoming, err = friends.ListIncomingRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
	assert.Len(t, collab.edges, 1)
}

func TestSendFriendRequestCreatesPendingEdge(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	friends := newTestFriendManager(t, collab, doctorID)

	result, err := friends.SendFriendRequest(context.Background(), nurseID)
	require.NoError(t, err)
	assert.Equal(t, SendStatusSent, result.Status)
	require.NotNil(t, result.Edge)
	assert.Equal(t, enum.FriendStatusPending, result.Edge.Status)
	assert.Equal(t, nurseID, result.Edge.OtherParty(doctorID).ID)
}

func TestFriendRequestToSelfIsRejectedLocally(t *testing.T) {
	collab := newFakeCollaborator(doctorID)
	friends := newTestFriendManager(t, collab, doctorID)

	_, err := friends.SendFriendRequest(context.Background(), doctorID)
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, collab.count("SendFriendRequest"))
}

func TestAcceptRefreshesListsAndNotifies(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(patientID)
	friends := newTestFriendManager(t, collab, patientID)
	edge, err := collab.addEdge(doctorID, patientID)
	require.NoError(t, err)
	_, err = friends.ListIncomingRequests(ctx)
	require.NoError(t, err)

	var notified atomic.Int32
	friends.OnInvalidate(func() { notified.Add(1) })

	updated, err := friends.RespondToRequest(ctx, edge.ID, enum.FriendActionAccept)
	require.NoError(t, err)
	assert.Equal(t, enum.FriendStatusAccepted, updated.Status)
	assert.Equal(t, int32(1), notified.Load())

	require.Len(t, friends.Friends(), 1)
	assert.Equal(t, doctorID, friends.Friends()[0].OtherParty(patientID).ID)
	assert.Empty(t, friends.IncomingRequests())
}

func TestRespondValidatesActionAndSurfacesConflict(t *testing.T) {
	ctx := context.Background()
	collab := newFakeCollaborator(patientID)
	friends := newTestFriendManager(t, collab, patientID)
	edge, err := collab.addEdge(doctorID, patientID)
	require.NoError(t, err)

	_, err = friends.RespondToRequest(ctx, edge.ID, enum.FriendAction("ignore"))
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, collab.count("RespondFriendRequest"))

	_, err = friends.RespondToRequest(ctx, edge.ID, enum.FriendActionReject)
	require.NoError(t, err)
	_, err = friends.RespondToRequest(ctx, edge.ID, enum.FriendActionAccept)
	assert.True(t, apperror.IsConflict(err))
}
