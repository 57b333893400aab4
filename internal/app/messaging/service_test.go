// internal/app/messaging/service_test.go

package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/classline/classline/internal/app/conversation"
	directorystore "github.com/classline/classline/internal/app/store/directory"
	messagestore "github.com/classline/classline/internal/app/store/messages"
	"github.com/classline/classline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	svc       *Service
	directory *directorystore.MemStore
	messages  *messagestore.MemStore

	admin    models.User
	teacher  models.User // class teacher of class
	outsider models.User // teacher with no class
	student  models.User // on the roster
	student2 models.User // on the roster
	stranger models.User // student, not on the roster

	class models.Class
	scope models.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := directorystore.NewMem()
	msgs := messagestore.NewMem()

	mustUser := func(name, role string) models.User {
		u, err := dir.CreateUser(ctx, models.User{FullName: name, Role: role})
		if err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		return u
	}

	f := &fixture{
		svc:       NewService(dir, msgs, zap.NewNop()),
		directory: dir,
		messages:  msgs,
		admin:     mustUser("Head Admin", models.RoleAdmin),
		teacher:   mustUser("Grace Form", models.RoleTeacher),
		outsider:  mustUser("Other Teacher", models.RoleTeacher),
		student:   mustUser("Ada Pupil", models.RoleStudent),
		student2:  mustUser("Mia Pupil", models.RoleStudent),
		stranger:  mustUser("Zoe Elsewhere", models.RoleStudent),
	}

	if _, err := dir.AddDepartment(ctx, "Science"); err != nil {
		t.Fatalf("add department: %v", err)
	}
	class, err := dir.AddClass(ctx, "7A", "Science")
	if err != nil {
		t.Fatalf("add class: %v", err)
	}
	if err := dir.AssignClassTeacher(ctx, class.ID, f.teacher.ID); err != nil {
		t.Fatalf("assign class teacher: %v", err)
	}
	for _, s := range []models.User{f.student, f.student2} {
		if err := dir.AssignStudentToClass(ctx, class.ID, s.ID); err != nil {
			t.Fatalf("assign student: %v", err)
		}
	}
	class, err = dir.GetClass(ctx, class.ID)
	if err != nil {
		t.Fatalf("reload class: %v", err)
	}
	f.class = class
	f.scope = conversation.ResolveClass(class.ID)
	return f
}

func taskInput() CreateMessageInput {
	return CreateMessageInput{
		Type:  models.TypeTask,
		Title: "Lab report",
		Body:  "Submit by Friday.",
	}
}

func TestCreateMessageBroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput())
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if msg.ID.IsZero() || msg.CreatedAt.IsZero() {
		t.Fatal("expected store-assigned id and timestamp")
	}
	if msg.SenderRole != models.RoleTeacher {
		t.Fatalf("sender role = %q", msg.SenderRole)
	}
	if msg.PollResults == nil || len(msg.PollResults) != 0 {
		t.Fatalf("task must start with an empty poll, got %v", msg.PollResults)
	}

	got, err := f.svc.Snapshot(ctx, f.student, f.scope)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(got) != 1 || got[0].ID != msg.ID {
		t.Fatalf("snapshot = %v", got)
	}
}

func TestCreateMessageNonPollTypesCarryNoPoll(t *testing.T) {
	f := newFixture(t)
	for _, typ := range []string{models.TypeMaterial, models.TypeEvent} {
		in := taskInput()
		in.Type = typ
		msg, err := f.svc.CreateMessage(context.Background(), f.teacher, f.scope, in)
		if err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
		if msg.PollResults != nil {
			t.Fatalf("%s must not carry a poll", typ)
		}
	}
}

func TestCreateMessageSanitizesContent(t *testing.T) {
	f := newFixture(t)
	in := taskInput()
	in.Title = `Homework <script>alert("x")</script>`
	in.Body = `Read <b>chapter 3</b><script>alert("x")</script>`

	msg, err := f.svc.CreateMessage(context.Background(), f.teacher, f.scope, in)
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if strings.Contains(msg.Title, "<") {
		t.Fatalf("title kept markup: %q", msg.Title)
	}
	if strings.Contains(msg.Body, "script") {
		t.Fatalf("body kept script: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "<b>") {
		t.Fatalf("body lost benign formatting: %q", msg.Body)
	}
}

func TestCreateMessagePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, actor := range map[string]models.User{
		"student":         f.student,
		"foreign teacher": f.outsider,
	} {
		if _, err := f.svc.CreateMessage(ctx, actor, f.scope, taskInput()); !errors.Is(err, models.ErrPermissionDenied) {
			t.Fatalf("%s: err = %v, want permission denied", name, err)
		}
	}

	if _, err := f.svc.CreateMessage(ctx, f.admin, f.scope, taskInput()); err != nil {
		t.Fatalf("admin broadcast: %v", err)
	}
}

func TestCreateMessageUnknownClass(t *testing.T) {
	f := newFixture(t)
	scope := conversation.ResolveClass(primitive.NewObjectID())
	if _, err := f.svc.CreateMessage(context.Background(), f.admin, scope, taskInput()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(*CreateMessageInput){
		"bad type":    func(in *CreateMessageInput) { in.Type = "announcement" },
		"empty title": func(in *CreateMessageInput) { in.Title = "   " },
		"empty body":  func(in *CreateMessageInput) { in.Body = "" },
		"bad link":    func(in *CreateMessageInput) { in.Link = "not a url" },
	}
	for name, mutate := range cases {
		in := taskInput()
		mutate(&in)
		if _, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, in); !models.IsValidation(err) {
			t.Fatalf("%s: err = %v, want validation error", name, err)
		}
	}
}

func TestCreateMessageDM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, err := conversation.ResolveDM(f.teacher.ID, f.student.ID)
	if err != nil {
		t.Fatalf("resolve dm: %v", err)
	}

	if _, err := f.svc.CreateMessage(ctx, f.teacher, scope, taskInput()); err != nil {
		t.Fatalf("teacher dm message: %v", err)
	}
	// Students converse through replies, not top-level messages.
	if _, err := f.svc.CreateMessage(ctx, f.student, scope, taskInput()); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("student dm message: err = %v, want permission denied", err)
	}
	// A teacher outside the pair cannot post into it.
	if _, err := f.svc.CreateMessage(ctx, f.outsider, scope, taskInput()); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("outsider dm message: err = %v, want permission denied", err)
	}
}

func TestSubmitVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput())
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	updated, err := f.svc.SubmitVote(ctx, f.student, msg.ID, models.VoteYes)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if got := updated.PollResults[f.student.ID.Hex()]; got != models.VoteYes {
		t.Fatalf("recorded vote = %q", got)
	}

	// Votes are final; flipping is rejected and the original stands.
	if _, err := f.svc.SubmitVote(ctx, f.student, msg.ID, models.VoteNo); !errors.Is(err, models.ErrAlreadyVoted) {
		t.Fatalf("second vote: err = %v, want already voted", err)
	}
	current, err := f.svc.Message(ctx, f.student, msg.ID)
	if err != nil {
		t.Fatalf("reload message: %v", err)
	}
	if got := current.PollResults[f.student.ID.Hex()]; got != models.VoteYes {
		t.Fatalf("vote changed to %q", got)
	}

	// Another recipient votes independently.
	updated, err = f.svc.SubmitVote(ctx, f.student2, msg.ID, models.VoteNo)
	if err != nil {
		t.Fatalf("second voter: %v", err)
	}
	if len(updated.PollResults) != 2 {
		t.Fatalf("poll results = %v", updated.PollResults)
	}
}

func TestSubmitVoteDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput())
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	materialIn := taskInput()
	materialIn.Type = models.TypeMaterial
	material, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, materialIn)
	if err != nil {
		t.Fatalf("create material: %v", err)
	}

	for name, tc := range map[string]struct {
		actor models.User
		msgID primitive.ObjectID
	}{
		"teacher":            {f.teacher, task.ID},
		"admin":              {f.admin, task.ID},
		"unrostered student": {f.stranger, task.ID},
		"non-poll message":   {f.student, material.ID},
	} {
		if _, err := f.svc.SubmitVote(ctx, tc.actor, tc.msgID, models.VoteYes); !errors.Is(err, models.ErrPermissionDenied) {
			t.Fatalf("%s: err = %v, want permission denied", name, err)
		}
	}

	if _, err := f.svc.SubmitVote(ctx, f.student, task.ID, "maybe"); !models.IsValidation(err) {
		t.Fatalf("bad value: err = %v, want validation error", err)
	}
	if _, err := f.svc.SubmitVote(ctx, f.student, primitive.NewObjectID(), models.VoteYes); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("unknown message: err = %v, want not found", err)
	}
}

func TestSubmitVoteInDM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, err := conversation.ResolveDM(f.teacher.ID, f.student.ID)
	if err != nil {
		t.Fatalf("resolve dm: %v", err)
	}
	msg, err := f.svc.CreateMessage(ctx, f.teacher, scope, taskInput())
	if err != nil {
		t.Fatalf("create dm task: %v", err)
	}

	if _, err := f.svc.SubmitVote(ctx, f.student, msg.ID, models.VoteNo); err != nil {
		t.Fatalf("participant vote: %v", err)
	}
	if _, err := f.svc.SubmitVote(ctx, f.stranger, msg.ID, models.VoteYes); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("non-participant vote: err = %v, want permission denied", err)
	}
}

func TestCreateReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput())
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	reply, err := f.svc.CreateReply(ctx, f.student, msg.ID, CreateReplyInput{
		Kind: models.ReplyNormal,
		Body: `Done <script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if reply.AuthorRole != models.RoleStudent {
		t.Fatalf("author role = %q", reply.AuthorRole)
	}
	if strings.Contains(reply.Body, "script") {
		t.Fatalf("reply body kept script: %q", reply.Body)
	}

	thread, err := f.svc.Replies(ctx, f.teacher, msg.ID)
	if err != nil {
		t.Fatalf("replies: %v", err)
	}
	if len(thread) != 1 || thread[0].ID != reply.ID {
		t.Fatalf("thread = %v", thread)
	}
}

func TestCreateReplyDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput())
	if err != nil {
		t.Fatalf("create message: %v", err)
	}

	in := CreateReplyInput{Kind: models.ReplyNormal, Body: "hello"}
	if _, err := f.svc.CreateReply(ctx, f.stranger, msg.ID, in); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("stranger reply: err = %v, want permission denied", err)
	}
	if _, err := f.svc.CreateReply(ctx, f.student, primitive.NewObjectID(), in); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("orphan reply: err = %v, want not found", err)
	}
	if _, err := f.svc.CreateReply(ctx, f.student, msg.ID, CreateReplyInput{Kind: "shout", Body: "hi"}); !models.IsValidation(err) {
		t.Fatalf("bad kind: err = %v, want validation error", err)
	}
}

func TestSnapshotGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.CreateMessage(ctx, f.teacher, f.scope, taskInput()); err != nil {
		t.Fatalf("create message: %v", err)
	}

	if _, err := f.svc.Snapshot(ctx, f.outsider, f.scope); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("foreign teacher snapshot: err = %v, want permission denied", err)
	}
	if _, err := f.svc.Snapshot(ctx, f.stranger, f.scope); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("unrostered student snapshot: err = %v, want permission denied", err)
	}
	if _, err := f.svc.Snapshot(ctx, f.admin, f.scope); err != nil {
		t.Fatalf("admin snapshot: %v", err)
	}
}
