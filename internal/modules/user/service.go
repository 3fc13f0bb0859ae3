package user

import (
	"context"
	"errors"
	"strings"

	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/sanitize"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	tasks  *taskqueue.Service
	logger *zap.Logger
}

func NewService(db *gorm.DB, tasks *taskqueue.Service, logger *zap.Logger) *Service {
	return &Service{db: db, tasks: tasks, logger: logger}
}

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) GetByUsername(username string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) UpdateProfile(id string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.GetByID(id)
	if err != nil || u == nil {
		return u, err
	}

	updates := map[string]interface{}{}
	if dto.FullName != nil {
		u.FullName = sanitize.Text(*dto.FullName)
		updates["full_name"] = u.FullName
	}
	if dto.Bio != nil {
		u.Bio = sanitize.Text(*dto.Bio)
		updates["bio"] = u.Bio
	}
	if dto.Website != nil {
		u.Website = strings.TrimSpace(*dto.Website)
		updates["website"] = u.Website
	}
	if dto.Avatar != nil {
		u.Avatar = strings.TrimSpace(*dto.Avatar)
		updates["avatar"] = u.Avatar
	}
	if len(updates) == 0 {
		return u, nil
	}
	return u, s.db.Model(u).Updates(updates).Error
}

func (s *Service) UpdateSettings(id string, dto *UpdateSettingsDTO) (*models.UserModel, error) {
	u, err := s.GetByID(id)
	if err != nil || u == nil {
		return u, err
	}

	updates := map[string]interface{}{}
	if dto.IsPrivate != nil {
		u.IsPrivate = *dto.IsPrivate
		updates["is_private"] = u.IsPrivate
	}
	if dto.Likes != nil {
		u.Preferences.Likes = *dto.Likes
		updates["notify_likes"] = u.Preferences.Likes
	}
	if dto.Comments != nil {
		u.Preferences.Comments = *dto.Comments
		updates["notify_comments"] = u.Preferences.Comments
	}
	if dto.Follows != nil {
		u.Preferences.Follows = *dto.Follows
		updates["notify_follows"] = u.Preferences.Follows
	}
	if dto.Messages != nil {
		u.Preferences.Messages = *dto.Messages
		updates["notify_messages"] = u.Preferences.Messages
	}
	if len(updates) == 0 {
		return u, nil
	}
	return u, s.db.Model(u).Updates(updates).Error
}

// Follow creates the edge and bumps both counters atomically.
func (s *Service) Follow(followerID, followeeID string) error {
	if followerID == followeeID {
		return errSelfFollow
	}
	target, err := s.GetByID(followeeID)
	if err != nil {
		return err
	}
	if target == nil {
		return errUserNotFound
	}

	edge := models.FollowModel{FollowerID: followerID, FolloweeID: followeeID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			FirstOrCreate(&edge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// edge already existed, counters stay put
			return nil
		}
		if err := tx.Model(&models.UserModel{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		return err
	}

	s.dispatchNotification(followeeID, followerID)
	return nil
}

// Unfollow removes the edge and decrements both counters.
func (s *Service) Unfollow(followerID, followeeID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			Delete(&models.FollowModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotFollowing
		}
		if err := tx.Model(&models.UserModel{}).
			Where("id = ? AND follower_count > 0", followeeID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).
			Where("id = ? AND following_count > 0", followerID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
}

// RemoveFollower drops someone following the given user.
func (s *Service) RemoveFollower(userID, followerID string) error {
	return s.Unfollow(followerID, userID)
}

func (s *Service) IsFollowing(followerID, followeeID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.FollowModel{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// FollowersQuery returns a query over users following userID.
func (s *Service) FollowersQuery(userID string) *gorm.DB {
	return s.db.Model(&models.UserModel{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC")
}

// FollowingQuery returns a query over users that userID follows.
func (s *Service) FollowingQuery(userID string) *gorm.DB {
	return s.db.Model(&models.UserModel{}).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC")
}

// SearchQuery matches username and full name by prefix or substring.
func (s *Service) SearchQuery(term string) *gorm.DB {
	like := "%" + strings.TrimSpace(term) + "%"
	return s.db.Model(&models.UserModel{}).
		Where("username LIKE ? OR full_name LIKE ?", like, like).
		Order("follower_count DESC")
}

// Suggestions returns up to limit users the given user does not follow yet,
// ranked by the suggestion score.
func (s *Service) Suggestions(userID string, limit int) ([]SuggestedUser, error) {
	if limit <= 0 {
		limit = 10
	}

	var candidates []models.UserModel
	err := s.db.Model(&models.UserModel{}).
		Where("id != ?", userID).
		Where("id NOT IN (?)", s.db.Model(&models.FollowModel{}).
			Select("followee_id").Where("follower_id = ?", userID)).
		Order("follower_count DESC").
		Limit(100).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	following, err := s.followingIDs(userID)
	if err != nil {
		return nil, err
	}

	scored := make([]SuggestedUser, 0, len(candidates))
	for i := range candidates {
		cand := &candidates[i]
		mutuals, err := s.mutualCount(following, cand.ID)
		if err != nil {
			return nil, err
		}
		scored = append(scored, SuggestedUser{
			User:        cand,
			MutualCount: mutuals,
			Score:       SuggestionScore(mutuals, cand.FollowerCount, cand.CreatedAt),
		})
	}
	SortSuggestions(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// IDsByUsernames resolves existing usernames to user ids, dropping any
// that do not exist.
func (s *Service) IDsByUsernames(usernames []string) (map[string]string, error) {
	result := make(map[string]string, len(usernames))
	if len(usernames) == 0 {
		return result, nil
	}
	var users []models.UserModel
	err := s.db.Select("id", "username").
		Where("username IN ?", usernames).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.Username] = u.ID
	}
	return result, nil
}

func (s *Service) followingIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.FollowModel{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

// mutualCount counts how many accounts the user follows that also follow
// the candidate.
func (s *Service) mutualCount(following []string, candidateID string) (int, error) {
	if len(following) == 0 {
		return 0, nil
	}
	var count int64
	err := s.db.Model(&models.FollowModel{}).
		Where("follower_id IN ? AND followee_id = ?", following, candidateID).
		Count(&count).Error
	return int(count), err
}

func (s *Service) dispatchNotification(recipientID, actorID string) {
	_, err := s.tasks.Enqueue(context.Background(), taskqueue.TypeFanoutNotification, taskqueue.NotificationPayload{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        string(models.NotificationFollow),
	}, "")
	if err != nil {
		s.logger.Warn("notification enqueue failed", zap.Error(err))
	}
}
