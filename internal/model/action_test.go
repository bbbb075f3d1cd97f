package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalAction_Steer(t *testing.T) {
	data, err := MarshalAction(Steer{Op: SteerComment, On: CommentOnIssue, Number: 42, Body: "Here's my plan."})
	require.NoError(t, err)
	require.Equal(t, `{"body":"Here's my plan.","kind":"steer","number":42,"on":"issue","op":"comment"}`, data)
}

func TestMarshalAction_Log(t *testing.T) {
	data, err := MarshalAction(Log{Note: "Waiting for review."})
	require.NoError(t, err)
	require.Equal(t, `{"kind":"log","note":"Waiting for review."}`, data)
}

func TestMarshalAction_UnknownSteerOp(t *testing.T) {
	_, err := MarshalAction(Steer{Op: "jibe"})
	require.Error(t, err)
}

func TestMarshalAction_CommentNeedsRouting(t *testing.T) {
	_, err := MarshalAction(Steer{Op: SteerComment, Number: 42, Body: "unrouted"})
	require.Error(t, err)
}

func TestMarshalAction_RoutingOnlyOnComment(t *testing.T) {
	_, err := MarshalAction(Steer{Op: SteerCloseIssue, On: CommentOnIssue, Number: 42})
	require.Error(t, err)
}

func TestActionRoundTrip(t *testing.T) {
	actions := []Action{
		Steer{Op: SteerMergePullRequest, Number: 7},
		Steer{Op: SteerCreateIssue, Body: "A fresh issue."},
		Steer{Op: SteerComment, On: CommentOnReview, Number: 310442, Body: "Fixed in the next push."},
		Steer{Op: SteerCommit, Body: "Fix the widget"},
		Steer{Op: SteerPush},
		Log{Note: "Charted a course."},
	}

	for _, action := range actions {
		data, err := MarshalAction(action)
		require.NoError(t, err)

		parsed, err := UnmarshalAction(data)
		require.NoError(t, err)
		require.Equal(t, action, parsed)
	}
}

func TestUnmarshalAction_UnknownKind(t *testing.T) {
	_, err := UnmarshalAction(`{"kind":"mutiny"}`)
	require.Error(t, err)
}

func TestUnmarshalAction_UnroutedComment(t *testing.T) {
	_, err := UnmarshalAction(`{"body":"b","kind":"steer","number":1,"op":"comment"}`)
	require.Error(t, err)
}

func TestRoleAndMethodValidation(t *testing.T) {
	require.True(t, RoleHuman.Valid())
	require.True(t, RoleAgent.Valid())
	require.False(t, Role("ghost").Valid())

	require.True(t, MethodManual.Valid())
	require.True(t, MethodModel.Valid())
	require.False(t, Method("dice").Valid())

	require.True(t, CommentOnIssue.Valid())
	require.True(t, CommentOnPullRequest.Valid())
	require.True(t, CommentOnReview.Valid())
	require.False(t, CommentOn("gist").Valid())
}
