package screens

import (
	"github.com/samber/lo"

	"community-service/internal/models"
)

// QuestionCards shapes question rows for the given viewer.
func QuestionCards(rows []models.QuestionRow, viewerID string) []models.QuestionCard {
	return lo.Map(rows, func(r models.QuestionRow, _ int) models.QuestionCard {
		return questionCard(r, viewerID)
	})
}

func questionCard(r models.QuestionRow, viewerID string) models.QuestionCard {
	likes := []string(r.LikeUserIDs)
	if likes == nil {
		likes = []string{}
	}
	return models.QuestionCard{
		ID:             r.ID,
		Title:          r.Title,
		Content:        r.Content,
		Language:       r.Language,
		AuthorID:       r.UserID,
		AuthorUsername: r.AuthorUsername,
		CreatedAt:      r.CreatedAt,
		LikeUserIDs:    likes,
		LikesCount:     len(likes),
		LikedByViewer:  viewerID != "" && lo.Contains(likes, viewerID),
		AnswersCount:   r.AnswerCount,
	}
}

// AnswerViews shapes answer rows for the given viewer.
func AnswerViews(rows []models.AnswerRow, viewerID string) []models.AnswerView {
	return lo.Map(rows, func(r models.AnswerRow, _ int) models.AnswerView {
		likes := []string(r.LikeUserIDs)
		if likes == nil {
			likes = []string{}
		}
		return models.AnswerView{
			ID:             r.ID,
			QuestionID:     r.QuestionID,
			Content:        r.Content,
			AuthorID:       r.UserID,
			AuthorUsername: r.AuthorUsername,
			CreatedAt:      r.CreatedAt,
			LikeUserIDs:    likes,
			LikesCount:     len(likes),
			LikedByViewer:  viewerID != "" && lo.Contains(likes, viewerID),
		}
	})
}

// GroupCards shapes group rows for the given viewer.
func GroupCards(rows []models.GroupRow, viewerID string) []models.GroupCard {
	return lo.Map(rows, func(r models.GroupRow, _ int) models.GroupCard {
		return groupCard(r, viewerID)
	})
}

func groupCard(r models.GroupRow, viewerID string) models.GroupCard {
	return models.GroupCard{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		CreatorID:       r.CreatedBy,
		CreatorUsername: r.CreatorUsername,
		CreatedAt:       r.CreatedAt,
		MembersCount:    len(r.MemberIDs),
		ViewerIsMember:  viewerID != "" && lo.Contains([]string(r.MemberIDs), viewerID),
	}
}

// PostViews shapes post rows, pairing each media URL with its kind.
func PostViews(rows []models.PostRow, viewerID string) []models.PostView {
	return lo.Map(rows, func(r models.PostRow, _ int) models.PostView {
		media := lo.Map([]string(r.MediaURLs), func(url string, i int) models.MediaItem {
			kind := "image"
			if i < len(r.MediaTypes) {
				kind = r.MediaTypes[i]
			}
			return models.MediaItem{URL: url, Type: kind}
		})
		return models.PostView{
			ID:             r.ID,
			GroupID:        r.GroupID,
			Content:        r.Content,
			AuthorID:       r.UserID,
			AuthorUsername: r.AuthorUsername,
			Media:          media,
			CreatedAt:      r.CreatedAt,
			LikesCount:     len(r.LikeUserIDs),
			LikedByViewer:  viewerID != "" && lo.Contains([]string(r.LikeUserIDs), viewerID),
		}
	})
}

// MessageViews shapes chat rows, oldest first as stored.
func MessageViews(rows []models.GroupMessageRow, viewerID string) []models.MessageView {
	return lo.Map(rows, func(r models.GroupMessageRow, _ int) models.MessageView {
		var media *models.MediaItem
		if r.MediaURL != nil && *r.MediaURL != "" {
			kind := "image"
			if r.MediaType != nil {
				kind = *r.MediaType
			}
			media = &models.MediaItem{URL: *r.MediaURL, Type: kind}
		}
		return models.MessageView{
			ID:             r.ID,
			Content:        r.Content,
			AuthorID:       r.UserID,
			AuthorUsername: r.AuthorUsername,
			Media:          media,
			CreatedAt:      r.CreatedAt,
			Mine:           viewerID != "" && r.UserID == viewerID,
		}
	})
}

func findQuestion(cards []models.QuestionCard, id string) (models.QuestionCard, bool) {
	return lo.Find(cards, func(c models.QuestionCard) bool { return c.ID == id })
}

func findAnswer(answers []models.AnswerView, id string) (models.AnswerView, bool) {
	return lo.Find(answers, func(a models.AnswerView) bool { return a.ID == id })
}

func findPost(posts []models.PostView, id string) (models.PostView, bool) {
	return lo.Find(posts, func(p models.PostView) bool { return p.ID == id })
}
