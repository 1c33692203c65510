package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/forumhub/forumhub/config"
	"github.com/forumhub/forumhub/models"
	"github.com/forumhub/forumhub/repository"
	"github.com/forumhub/forumhub/utils"
)

// Seeder fills the database with demo users, topics, posts, and comments for
// local development.
func main() {
	var numUsers, numTopics, numPosts, numComments int
	flag.IntVar(&numUsers, "users", 10, "number of users to create")
	flag.IntVar(&numTopics, "topics", 5, "number of topics to create")
	flag.IntVar(&numPosts, "posts", 50, "number of posts to create")
	flag.IntVar(&numComments, "comments", 200, "number of comments to create")
	flag.Parse()

	if numUsers <= 0 || numTopics <= 0 || numPosts <= 0 || numComments < 0 {
		fmt.Println("users, topics, and posts must be positive")
		os.Exit(1)
	}

	cfg := config.Load()
	if err := utils.InitLogger(cfg.Log); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := utils.Logger
	defer func() { _ = logger.Sync() }()

	db := config.InitDatabase(&models.User{}, &models.Topic{}, &models.Post{}, &models.Comment{})
	posts := repository.NewPostRepository(db, logger)
	comments := repository.NewCommentRepository(db, logger)

	ctx := context.Background()
	start := time.Now()

	users := make([]models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte(gofakeit.Password(true, true, true, false, false, 16)), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("failed to hash password", zap.Error(err))
		}
		user := models.User{
			Username:     gofakeit.Username(),
			Email:        gofakeit.Email(),
			PasswordHash: string(hash),
		}
		if err := db.Create(&user).Error; err != nil {
			logger.Fatal("failed to create user", zap.Error(err))
		}
		users = append(users, user)
	}
	logger.Info("seeded users", zap.Int("count", len(users)))

	topics := make([]models.Topic, 0, numTopics)
	for i := 0; i < numTopics; i++ {
		topic := models.Topic{Title: gofakeit.HipsterSentence(3)}
		if err := db.Create(&topic).Error; err != nil {
			logger.Fatal("failed to create topic", zap.Error(err))
		}
		topics = append(topics, topic)
	}
	logger.Info("seeded topics", zap.Int("count", len(topics)))

	seededPosts := make([]models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		title := gofakeit.Sentence(gofakeit.Number(3, 8))
		slug, err := utils.UniqueSlug(title, func(candidate string) (bool, error) {
			return posts.SlugExists(ctx, candidate)
		})
		if err != nil {
			logger.Fatal("failed to allocate slug", zap.Error(err))
		}
		post := models.Post{
			UserID:    users[gofakeit.Number(0, len(users)-1)].ID,
			TopicID:   topics[gofakeit.Number(0, len(topics)-1)].ID,
			Slug:      slug,
			Title:     title,
			Body:      gofakeit.Paragraph(2, 4, 12, " "),
			Published: gofakeit.Bool(),
		}
		if err := posts.Create(ctx, &post); err != nil {
			logger.Fatal("failed to create post", zap.Error(err))
		}
		seededPosts = append(seededPosts, post)
	}
	logger.Info("seeded posts", zap.Int("count", len(seededPosts)))

	for i := 0; i < numComments; i++ {
		body := gofakeit.Sentence(gofakeit.Number(3, 20))
		comment := models.Comment{
			UserID:      users[gofakeit.Number(0, len(users)-1)].ID,
			PostID:      seededPosts[gofakeit.Number(0, len(seededPosts)-1)].ID,
			Slug:        utils.CommentSlug(body),
			CommentBody: body,
		}
		if err := comments.Create(ctx, &comment); err != nil {
			logger.Fatal("failed to create comment", zap.Error(err))
		}
	}
	logger.Info("seeded comments", zap.Int("count", numComments))

	fmt.Printf("seeding finished in %v\n", time.Since(start))
}
