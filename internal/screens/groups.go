package screens

import (
	"context"

	"community-service/internal/models"
	"community-service/internal/realtime"
	"community-service/internal/viewsync"
)

// GroupListView is the snapshot of the group list.
type GroupListView struct {
	Groups []models.GroupCard `json:"groups"`
}

// GroupList shows every group, newest first.
type GroupList struct {
	*viewsync.Screen
	svc    *Service
	viewer *models.Viewer
	groups viewsync.Slice[[]models.GroupCard]
}

// NewGroupList builds an unmounted group list.
func (s *Service) NewGroupList(viewer *models.Viewer) *GroupList {
	g := &GroupList{
		Screen: viewsync.NewScreen(s.screenOptions("group_list", nil)),
		svc:    s,
		viewer: viewer,
	}
	viewsync.Load(g.Screen, "groups", &g.groups, func(ctx context.Context) ([]models.GroupCard, error) {
		return s.ListGroups(ctx, viewer)
	})
	g.Watch(realtime.Topic{Table: "groups"})
	g.Watch(realtime.Topic{Table: "group_members"})
	return g
}

func (g *GroupList) Snapshot() any {
	list, _ := g.groups.Get()
	if list == nil {
		list = []models.GroupCard{}
	}
	return GroupListView{Groups: list}
}

func (g *GroupList) Handle(ctx context.Context, a Action) error {
	switch a.Type {
	case ActionCreateGroup:
		_, err := g.svc.CreateGroup(ctx, g.viewer, GroupForm{Name: a.Name, Description: a.Description}, g.Screen)
		return err
	case ActionToggleMembership:
		list, _ := g.groups.Get()
		var member bool
		for _, card := range list {
			if card.ID == a.TargetID {
				member = card.ViewerIsMember
			}
		}
		err := g.svc.Membership.Apply(ctx, g.viewer, a.TargetID, member, g.Screen)
		return settle(g.Screen, err, "groups")
	default:
		return ErrUnknownAction
	}
}

// GroupDetailView is the snapshot of one group page with its posts and chat tabs.
type GroupDetailView struct {
	Group    *models.GroupCard    `json:"group"`
	IsMember bool                 `json:"is_member"`
	Posts    []models.PostView    `json:"posts"`
	Messages []models.MessageView `json:"messages"`
}

// GroupDetail shows one group, its posts newest first and its chat oldest
// first. The chat stays empty unless the viewer is a member.
type GroupDetail struct {
	*viewsync.Screen
	svc      *Service
	viewer   *models.Viewer
	id       string
	group    viewsync.Slice[models.GroupCard]
	posts    viewsync.Slice[[]models.PostView]
	messages viewsync.Slice[[]models.MessageView]
}

// NewGroupDetail builds an unmounted group page.
func (s *Service) NewGroupDetail(viewer *models.Viewer, id string) *GroupDetail {
	g := &GroupDetail{
		Screen: viewsync.NewScreen(s.screenOptions("group_detail", nil)),
		svc:    s,
		viewer: viewer,
		id:     id,
	}
	viewsync.Load(g.Screen, "group", &g.group, func(ctx context.Context) (models.GroupCard, error) {
		return s.GetGroup(ctx, viewer, id)
	})
	viewsync.Load(g.Screen, "posts", &g.posts, func(ctx context.Context) ([]models.PostView, error) {
		return s.ListPosts(ctx, viewer, id)
	})
	viewsync.Load(g.Screen, "messages", &g.messages, func(ctx context.Context) ([]models.MessageView, error) {
		return s.MemberMessages(ctx, viewer, id)
	})
	byGroup := &realtime.Filter{Column: "group_id", Value: id}
	g.Watch(realtime.Topic{Table: "groups", Filter: &realtime.Filter{Column: "id", Value: id}}, "group")
	g.Watch(realtime.Topic{Table: "group_members", Filter: byGroup}, "group", "messages")
	g.Watch(realtime.Topic{Table: "posts", Filter: byGroup}, "posts")
	g.Watch(realtime.Topic{Table: "post_likes"}, "posts")
	g.Watch(realtime.Topic{Table: "group_messages", Filter: byGroup}, "messages")
	return g
}

func (g *GroupDetail) Snapshot() any {
	view := GroupDetailView{Posts: []models.PostView{}, Messages: []models.MessageView{}}
	if card, ok := g.group.Get(); ok {
		view.Group = &card
		view.IsMember = card.ViewerIsMember
	}
	if posts, _ := g.posts.Get(); posts != nil {
		view.Posts = posts
	}
	if msgs, _ := g.messages.Get(); msgs != nil {
		view.Messages = msgs
	}
	return view
}

func (g *GroupDetail) Handle(ctx context.Context, a Action) error {
	switch a.Type {
	case ActionToggleMembership:
		card, _ := g.group.Get()
		err := g.svc.Membership.Apply(ctx, g.viewer, g.id, card.ViewerIsMember, g.Screen)
		return settle(g.Screen, err, "group", "messages")
	case ActionTogglePostLike:
		posts, _ := g.posts.Get()
		post, _ := findPost(posts, a.TargetID)
		err := g.svc.PostLike.Apply(ctx, g.viewer, a.TargetID, post.LikedByViewer, g.Screen)
		return settle(g.Screen, err, "posts")
	case ActionCreatePost:
		_, err := g.svc.CreatePost(ctx, g.viewer, g.id, PostForm{Content: a.Content}, uploads(a.Files), g.Screen)
		if err == nil {
			g.Refresh("posts")
		}
		return err
	case ActionSendMessage:
		var file *viewsync.Upload
		if len(a.Files) > 0 {
			u := a.Files[0].upload()
			file = &u
		}
		_, err := g.svc.SendMessage(ctx, g.viewer, g.id, MessageForm{Content: a.Content}, file, g.Screen)
		if err == nil {
			g.Refresh("messages")
		}
		return err
	default:
		return ErrUnknownAction
	}
}
