package post

import (
	"context"
	"errors"
	"time"

	"github.com/echo88/core/internal/models"
	"github.com/echo88/core/internal/pkg/sanitize"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db     *gorm.DB
	tasks  *taskqueue.Service
	logger *zap.Logger
}

func NewService(db *gorm.DB, tasks *taskqueue.Service, logger *zap.Logger) *Service {
	return &Service{db: db, tasks: tasks, logger: logger}
}

// Create stores the post, bumps the author's counter and dispatches hashtag
// indexing and mention resolution to the background worker.
func (s *Service) Create(authorID string, dto *CreatePostDTO) (*models.PostModel, error) {
	text := sanitize.Text(dto.Text)

	p := models.PostModel{
		AuthorID:        authorID,
		Text:            text,
		Media:           dto.Media,
		Hashtags:        ExtractHashtags(text),
		Mentions:        ExtractMentions(text),
		Location:        sanitize.Text(dto.Location),
		HideLikes:       dto.HideLikes,
		DisableComments: dto.DisableComments,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).Where("id = ?", authorID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	payload := taskqueue.PostPayload{PostID: p.ID, AuthorID: authorID, Caption: text}
	s.dispatch(taskqueue.TypeIndexHashtags, payload, "hashtags:"+p.ID)
	if len(p.Mentions) > 0 {
		s.dispatch(taskqueue.TypeResolveMentions, payload, "mentions:"+p.ID)
	}

	return &p, nil
}

func (s *Service) GetByID(id string) (*models.PostModel, error) {
	var p models.PostModel
	if err := s.db.Preload("Author").First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Update edits an owned post. Media is immutable after creation.
func (s *Service) Update(id, userID string, dto *UpdatePostDTO) (*models.PostModel, error) {
	p, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errPostNotFound
	}
	if p.AuthorID != userID {
		return nil, errNotOwner
	}

	updates := map[string]interface{}{}
	if dto.Text != nil {
		p.Text = sanitize.Text(*dto.Text)
		p.Hashtags = ExtractHashtags(p.Text)
		p.Mentions = ExtractMentions(p.Text)
		updates["text"] = p.Text
		updates["hashtags"] = p.Hashtags
		updates["mentions"] = p.Mentions
	}
	if dto.Location != nil {
		p.Location = sanitize.Text(*dto.Location)
		updates["location"] = p.Location
	}
	if dto.HideLikes != nil {
		p.HideLikes = *dto.HideLikes
		updates["hide_likes"] = p.HideLikes
	}
	if dto.DisableComments != nil {
		p.DisableComments = *dto.DisableComments
		updates["disable_comments"] = p.DisableComments
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.db.Model(&models.PostModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}

	if dto.Text != nil {
		s.dispatch(taskqueue.TypeIndexHashtags, taskqueue.PostPayload{
			PostID: p.ID, AuthorID: p.AuthorID, Caption: p.Text,
		}, "")
	}
	return p, nil
}

func (s *Service) Delete(id, userID string) error {
	p, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if p == nil {
		return errPostNotFound
	}
	if p.AuthorID != userID {
		return errNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PostModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserModel{}).
			Where("id = ? AND post_count > 0", userID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
}

// FeedQuery returns posts from followed users and the viewer, newest first.
func (s *Service) FeedQuery(userID string) *gorm.DB {
	followed := s.db.Model(&models.FollowModel{}).
		Select("followee_id").Where("follower_id = ?", userID)
	return s.db.Model(&models.PostModel{}).Preload("Author").
		Where("author_id IN (?) OR author_id = ?", followed, userID).
		Order("created_at DESC")
}

// UserPostsQuery returns a single user's posts, newest first.
func (s *Service) UserPostsQuery(authorID string) *gorm.DB {
	return s.db.Model(&models.PostModel{}).Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC")
}

// UserPosts resolves a username and gates private accounts to the author
// and their followers.
func (s *Service) UserPosts(username, viewerID string) (*gorm.DB, error) {
	var author models.UserModel
	if err := s.db.First(&author, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	if author.IsPrivate && author.ID != viewerID {
		var count int64
		err := s.db.Model(&models.FollowModel{}).
			Where("follower_id = ? AND followee_id = ?", viewerID, author.ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, errPrivateAccount
		}
	}
	return s.UserPostsQuery(author.ID), nil
}

// TrendingQuery ranks recent public posts by decayed engagement.
func (s *Service) TrendingQuery() *gorm.DB {
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	return s.db.Model(&models.PostModel{}).Preload("Author").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.created_at > ? AND users.is_private = ?", cutoff, false).
		Order(trendingOrderSQL)
}

// HashtagQuery returns posts carrying the tag, newest first.
func (s *Service) HashtagQuery(tag string) *gorm.DB {
	return s.db.Model(&models.PostModel{}).Preload("Author").
		Where("JSON_CONTAINS(hashtags, JSON_QUOTE(?))", tag).
		Order("created_at DESC")
}

// Like records a like once and bumps the counter; liking again is a no-op.
func (s *Service) Like(postID, userID string) error {
	p, err := s.GetByID(postID)
	if err != nil {
		return err
	}
	if p == nil {
		return errPostNotFound
	}

	liked := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		like := models.PostLike{PostID: postID, UserID: userID}
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).FirstOrCreate(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		liked = true
		return tx.Model(&models.PostModel{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		return err
	}

	if liked && p.AuthorID != userID {
		s.dispatchNotification(p.AuthorID, userID, models.NotificationLike, postID)
	}
	return nil
}

func (s *Service) Unlike(postID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.PostModel{}).
			Where("id = ? AND like_count > 0", postID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
}

func (s *Service) HasLiked(postID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

// Save puts a post into the user's saved list, optionally in a collection.
func (s *Service) Save(postID, userID string, collectionID *string) error {
	p, err := s.GetByID(postID)
	if err != nil {
		return err
	}
	if p == nil {
		return errPostNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		saved := models.SavedPost{PostID: postID, UserID: userID, CollectionID: collectionID}
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).FirstOrCreate(&saved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if collectionID != nil {
				return tx.Model(&models.SavedPost{}).
					Where("post_id = ? AND user_id = ?", postID, userID).
					Update("collection_id", collectionID).Error
			}
			return nil
		}
		return tx.Model(&models.PostModel{}).Where("id = ?", postID).
			UpdateColumn("save_count", gorm.Expr("save_count + 1")).Error
	})
}

func (s *Service) Unsave(postID, userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&models.SavedPost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.PostModel{}).
			Where("id = ? AND save_count > 0", postID).
			UpdateColumn("save_count", gorm.Expr("save_count - 1")).Error
	})
}

// SavedQuery lists the user's saved posts, optionally scoped to a collection.
func (s *Service) SavedQuery(userID string, collectionID *string) *gorm.DB {
	q := s.db.Model(&models.SavedPost{}).Preload("Post").Preload("Post.Author").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if collectionID != nil {
		q = q.Where("collection_id = ?", *collectionID)
	}
	return q
}

func (s *Service) CreateCollection(userID, name string) (*models.CollectionModel, error) {
	col := models.CollectionModel{UserID: userID, Name: sanitize.Text(name)}
	return &col, s.db.Create(&col).Error
}

func (s *Service) ListCollections(userID string) ([]models.CollectionModel, error) {
	var cols []models.CollectionModel
	err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&cols).Error
	return cols, err
}

// IndexHashtags upserts per-tag usage counts for the tags in a caption.
func (s *Service) IndexHashtags(caption string) error {
	tags := ExtractHashtags(caption)
	for _, tag := range tags {
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tag"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"post_count": gorm.Expr("post_count + 1"),
			}),
		}).Create(&models.HashtagModel{Tag: tag, PostCount: 1}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) dispatch(taskType string, payload taskqueue.PostPayload, dedup string) {
	_, err := s.tasks.Enqueue(context.Background(), taskType, payload, dedup)
	if err != nil {
		s.logger.Warn("post task enqueue failed", zap.String("type", taskType), zap.Error(err))
	}
}

func (s *Service) dispatchNotification(recipientID, actorID string, typ models.NotificationType, postID string) {
	_, err := s.tasks.Enqueue(context.Background(), taskqueue.TypeFanoutNotification, taskqueue.NotificationPayload{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        string(typ),
		PostID:      postID,
	}, "")
	if err != nil {
		s.logger.Warn("notification enqueue failed", zap.Error(err))
	}
}
