package screens

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	"community-service/internal/models"
	"community-service/internal/realtime"
	"community-service/internal/repositories"
)

// memStore is an in-memory data store that emits change notifications the
// way the database triggers do.
type memStore struct {
	mu        sync.Mutex
	bus       *realtime.Bus
	seq       int
	clock     time.Time
	profiles  map[string]models.Profile
	questions []models.Question
	answers   []models.Answer
	qLikes    map[string]map[string]bool
	aLikes    map[string]map[string]bool
	groups    []models.Group
	members   map[string][]string
	posts     []models.Post
	pLikes    map[string]map[string]bool
	messages  []models.GroupMessage

	inserts    atomic.Int32
	listCalls  atomic.Int32
	answerList atomic.Int32
}

func newMemStore(bus *realtime.Bus) *memStore {
	return &memStore{
		bus:      bus,
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		profiles: map[string]models.Profile{},
		qLikes:   map[string]map[string]bool{},
		aLikes:   map[string]map[string]bool{},
		members:  map[string][]string{},
		pLikes:   map[string]map[string]bool{},
	}
}

func (s *memStore) nextID(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq), s.clock.Add(time.Duration(s.seq) * time.Second)
}

func (s *memStore) emit(table, op string, record map[string]any) {
	s.bus.Publish(models.Change{Table: table, Op: op, Record: record})
}

func (s *memStore) addProfile(id, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = models.Profile{ID: id, Username: username}
}

func keys(set map[string]bool) pq.StringArray {
	out := pq.StringArray{}
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) questionRow(q models.Question) models.QuestionRow {
	count := 0
	for _, a := range s.answers {
		if a.QuestionID == q.ID {
			count++
		}
	}
	return models.QuestionRow{
		Question:       q,
		AuthorUsername: s.profiles[q.UserID].Username,
		LikeUserIDs:    keys(s.qLikes[q.ID]),
		AnswerCount:    count,
	}
}

func (s *memStore) ListQuestions(ctx context.Context, authorID string) ([]models.QuestionRow, error) {
	s.listCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.QuestionRow{}
	for i := len(s.questions) - 1; i >= 0; i-- {
		q := s.questions[i]
		if authorID != "" && q.UserID != authorID {
			continue
		}
		rows = append(rows, s.questionRow(q))
	}
	return rows, nil
}

func (s *memStore) GetQuestion(ctx context.Context, id string) (models.QuestionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == id {
			return s.questionRow(q), nil
		}
	}
	return models.QuestionRow{}, repositories.ErrNotFound
}

func (s *memStore) CreateQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	s.inserts.Add(1)
	s.mu.Lock()
	q.ID, q.CreatedAt = s.nextID("q")
	s.questions = append(s.questions, q)
	s.mu.Unlock()
	s.emit("questions", models.OpInsert, map[string]any{"id": q.ID, "user_id": q.UserID})
	return q, nil
}

func toggleRow(set map[string]map[string]bool, target, user string, add bool) error {
	if set[target] == nil {
		set[target] = map[string]bool{}
	}
	if add {
		if set[target][user] {
			return fmt.Errorf("%w: likes_target_user_key", repositories.ErrDuplicate)
		}
		set[target][user] = true
		return nil
	}
	if !set[target][user] {
		return repositories.ErrNotFound
	}
	delete(set[target], user)
	return nil
}

func (s *memStore) likeChange(table, column string, set map[string]map[string]bool, target, user string, add bool) error {
	s.mu.Lock()
	err := toggleRow(set, target, user, add)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	op := models.OpInsert
	if !add {
		op = models.OpDelete
	}
	s.emit(table, op, map[string]any{column: target, "user_id": user})
	return nil
}

func (s *memStore) AddQuestionLike(ctx context.Context, questionID, userID string) error {
	return s.likeChange("question_likes", "question_id", s.qLikes, questionID, userID, true)
}

func (s *memStore) RemoveQuestionLike(ctx context.Context, questionID, userID string) error {
	return s.likeChange("question_likes", "question_id", s.qLikes, questionID, userID, false)
}

func (s *memStore) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerRow, error) {
	s.answerList.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.AnswerRow{}
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			rows = append(rows, models.AnswerRow{Answer: a, AuthorUsername: s.profiles[a.UserID].Username, LikeUserIDs: keys(s.aLikes[a.ID])})
		}
	}
	return rows, nil
}

func (s *memStore) CreateAnswer(ctx context.Context, a models.Answer) (models.Answer, error) {
	s.inserts.Add(1)
	s.mu.Lock()
	a.ID, a.CreatedAt = s.nextID("a")
	s.answers = append(s.answers, a)
	s.mu.Unlock()
	s.emit("answers", models.OpInsert, map[string]any{"id": a.ID, "question_id": a.QuestionID})
	return a, nil
}

func (s *memStore) AddAnswerLike(ctx context.Context, answerID, userID string) error {
	return s.likeChange("answer_likes", "answer_id", s.aLikes, answerID, userID, true)
}

func (s *memStore) RemoveAnswerLike(ctx context.Context, answerID, userID string) error {
	return s.likeChange("answer_likes", "answer_id", s.aLikes, answerID, userID, false)
}

func (s *memStore) groupRow(g models.Group) models.GroupRow {
	return models.GroupRow{
		Group:           g,
		CreatorUsername: s.profiles[g.CreatedBy].Username,
		MemberIDs:       append(pq.StringArray{}, s.members[g.ID]...),
	}
}

func (s *memStore) ListGroups(ctx context.Context) ([]models.GroupRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.GroupRow{}
	for i := len(s.groups) - 1; i >= 0; i-- {
		rows = append(rows, s.groupRow(s.groups[i]))
	}
	return rows, nil
}

func (s *memStore) GetGroup(ctx context.Context, groupID string) (models.GroupRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == groupID {
			return s.groupRow(g), nil
		}
	}
	return models.GroupRow{}, repositories.ErrNotFound
}

func (s *memStore) CreateGroup(ctx context.Context, creatorID, name, description string) (models.Group, error) {
	s.inserts.Add(1)
	s.mu.Lock()
	id, at := s.nextID("g")
	g := models.Group{ID: id, Name: name, Description: description, CreatedBy: creatorID, CreatedAt: at}
	s.groups = append(s.groups, g)
	s.members[id] = []string{creatorID}
	s.mu.Unlock()
	s.emit("groups", models.OpInsert, map[string]any{"id": id})
	s.emit("group_members", models.OpInsert, map[string]any{"group_id": id, "user_id": creatorID, "role": models.RoleAdmin})
	return g, nil
}

func (s *memStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[groupID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MemberRole(ctx context.Context, groupID, userID string) (string, error) {
	if ok, _ := s.IsMember(ctx, groupID, userID); !ok {
		return "", repositories.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == groupID && g.CreatedBy == userID {
			return models.RoleAdmin, nil
		}
	}
	return models.RoleMember, nil
}

func (s *memStore) AddMember(ctx context.Context, groupID, userID, role string) error {
	if ok, _ := s.IsMember(ctx, groupID, userID); ok {
		return repositories.ErrDuplicate
	}
	s.mu.Lock()
	s.members[groupID] = append(s.members[groupID], userID)
	s.mu.Unlock()
	s.emit("group_members", models.OpInsert, map[string]any{"group_id": groupID, "user_id": userID, "role": role})
	return nil
}

func (s *memStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	s.mu.Lock()
	kept := s.members[groupID][:0:0]
	for _, m := range s.members[groupID] {
		if m != userID {
			kept = append(kept, m)
		}
	}
	removed := len(kept) != len(s.members[groupID])
	s.members[groupID] = kept
	s.mu.Unlock()
	if !removed {
		return repositories.ErrNotFound
	}
	s.emit("group_members", models.OpDelete, map[string]any{"group_id": groupID, "user_id": userID})
	return nil
}

func (s *memStore) ListPosts(ctx context.Context, groupID string) ([]models.PostRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.PostRow{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if p.GroupID == groupID {
			rows = append(rows, models.PostRow{Post: p, AuthorUsername: s.profiles[p.UserID].Username, LikeUserIDs: keys(s.pLikes[p.ID])})
		}
	}
	return rows, nil
}

func (s *memStore) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	s.inserts.Add(1)
	s.mu.Lock()
	p.ID, p.CreatedAt = s.nextID("p")
	s.posts = append(s.posts, p)
	s.mu.Unlock()
	s.emit("posts", models.OpInsert, map[string]any{"id": p.ID, "group_id": p.GroupID})
	return p, nil
}

func (s *memStore) AddPostLike(ctx context.Context, postID, userID string) error {
	return s.likeChange("post_likes", "post_id", s.pLikes, postID, userID, true)
}

func (s *memStore) RemovePostLike(ctx context.Context, postID, userID string) error {
	return s.likeChange("post_likes", "post_id", s.pLikes, postID, userID, false)
}

func (s *memStore) ListGroupMessages(ctx context.Context, groupID string) ([]models.GroupMessageRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := []models.GroupMessageRow{}
	for _, m := range s.messages {
		if m.GroupID == groupID {
			rows = append(rows, models.GroupMessageRow{GroupMessage: m, AuthorUsername: s.profiles[m.UserID].Username})
		}
	}
	return rows, nil
}

func (s *memStore) CreateGroupMessage(ctx context.Context, msg models.GroupMessage) (models.GroupMessage, error) {
	s.inserts.Add(1)
	s.mu.Lock()
	msg.ID, msg.CreatedAt = s.nextID("m")
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.emit("group_messages", models.OpInsert, map[string]any{"id": msg.ID, "group_id": msg.GroupID})
	return msg, nil
}

func (s *memStore) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return models.Profile{}, repositories.ErrNotFound
	}
	return p, nil
}
