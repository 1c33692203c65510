package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forumhub/forumhub/config"
	"github.com/forumhub/forumhub/middleware"
	"github.com/forumhub/forumhub/models"
	"github.com/forumhub/forumhub/repository"
	"github.com/forumhub/forumhub/testutils"
	"github.com/forumhub/forumhub/utils"
)

func TestMain(m *testing.M) {
	testutils.InitTestMain()
	config.SetForTesting(config.AppConfig{
		FallbackUserID:     1,
		RateLimitPerMinute: 60,
	})
	m.Run()
}

type stubPostRepo struct {
	bySlug  map[string]*models.Post
	nextID  uint
	created []*models.Post
	deleted []uint
	updated []*models.Post

	listPosts []models.Post
	listTotal int64
	lastOpts  repository.ListPostsOptions

	err error
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{bySlug: map[string]*models.Post{}}
}

func (s *stubPostRepo) List(_ context.Context, opts repository.ListPostsOptions) ([]models.Post, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.lastOpts = opts
	return s.listPosts, s.listTotal, nil
}

func (s *stubPostRepo) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	post, ok := s.bySlug[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *post
	return &clone, nil
}

func (s *stubPostRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *stubPostRepo) Create(_ context.Context, post *models.Post) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	post.ID = s.nextID
	clone := *post
	s.bySlug[post.Slug] = &clone
	s.created = append(s.created, &clone)
	return nil
}

func (s *stubPostRepo) Update(_ context.Context, post *models.Post) error {
	if s.err != nil {
		return s.err
	}
	clone := *post
	s.bySlug[post.Slug] = &clone
	s.updated = append(s.updated, &clone)
	return nil
}

func (s *stubPostRepo) Delete(_ context.Context, post *models.Post) error {
	if s.err != nil {
		return s.err
	}
	delete(s.bySlug, post.Slug)
	s.deleted = append(s.deleted, post.ID)
	return nil
}

type stubCommentRepo struct {
	byPost map[uint][]models.Comment
	nextID uint
	err    error
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{byPost: map[uint][]models.Comment{}}
}

func (s *stubCommentRepo) ListByPost(_ context.Context, postID uint, page, size int) ([]models.Comment, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	all := s.byPost[postID]
	total := int64(len(all))
	start := (page - 1) * size
	if start > len(all) {
		return nil, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *stubCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	comment.ID = s.nextID
	s.byPost[comment.PostID] = append(s.byPost[comment.PostID], *comment)
	return nil
}

func setupController(posts repository.PostRepository, comments repository.CommentRepository) (*gin.Engine, *PostController) {
	pc := NewPostController(posts, comments, zap.NewNop())
	r := testutils.SetupTestRouter()
	r.GET("/api/v1/posts", pc.Index)
	r.POST("/api/v1/posts", pc.Store)
	r.GET("/api/v1/posts/:slug", pc.Show)
	r.GET("/api/v1/posts/:slug/comments", pc.GetComments)
	r.PATCH("/api/v1/posts/:slug", pc.Update)
	r.DELETE("/api/v1/posts/:slug", pc.Destroy)
	return r, pc
}

// authAs sets the request identity the way middleware.Identity would.
func authAs(userID uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Next()
	}
}

func doJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestIndex_ReturnsMetaAndData(t *testing.T) {
	posts := newStubPostRepo()
	posts.listPosts = []models.Post{{ID: 1, Title: "First"}, {ID: 2, Title: "Second"}}
	posts.listTotal = 2
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodGet, "/api/v1/posts", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
		Data []models.Post `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Meta.Total)
	assert.Len(t, body.Data, 2)
}

func TestIndex_PassesQueryParamsToRepository(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodGet, "/api/v1/posts?page=2&size=5&sort=title&order=desc&search=go", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, repository.ListPostsOptions{
		Page:   2,
		Size:   5,
		Sort:   "title",
		Order:  "desc",
		Search: "go",
	}, posts.lastOpts)

	var body struct {
		Meta map[string]json.Number `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, json.Number("2"), body.Meta["page"])
	assert.Equal(t, json.Number("5"), body.Meta["size"])
	assert.Contains(t, body.Meta, "lastPage")
}

func TestIndex_RepositoryError_Returns500(t *testing.T) {
	posts := newStubPostRepo()
	posts.err = assert.AnError
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodGet, "/api/v1/posts", nil)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), utils.MsgInternal)
}

func TestStore_CreatesPostWithSlugAndFallbackUser(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"topicId": 1,
		"title":   "Hello World",
		"body":    "first post body",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &post))
	assert.NotZero(t, post.ID)
	assert.True(t, strings.HasPrefix(post.Slug, "hello-world"), "slug %q should derive from the title", post.Slug)
	assert.Equal(t, uint(1), post.UserID, "anonymous creation falls back to the configured user")
	assert.Equal(t, uint(1), post.TopicID)
	assert.Equal(t, "Hello World", post.Title)
}

func TestStore_ShortTitle_Returns400BeforePersistence(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"topicId": 1,
		"title":   "ab",
		"body":    "long enough body",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errs []utils.FieldError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "min", errs[0].Rule)
	assert.Equal(t, "title", errs[0].Field)
	assert.Empty(t, posts.created, "invalid input must never reach persistence")
}

func TestStore_TitleTrimmedBeforeValidation(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	// 10 spaces around a 2-char title: length check applies after trimming.
	resp := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"topicId": 1,
		"title":   "     ab     ",
		"body":    "long enough body",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, posts.created)
}

func TestStore_MissingFields_ReportsEachField(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errs []utils.FieldError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errs))
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[e.Field] = e.Rule
	}
	assert.Equal(t, map[string]string{
		"topicId": "required",
		"title":   "required",
		"body":    "required",
	}, fields)
}

func TestStore_IdenticalTitles_YieldDistinctSlugs(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	payload := map[string]interface{}{
		"topicId": 1,
		"title":   "Same Title",
		"body":    "some body text",
	}

	first := doJSON(r, http.MethodPost, "/api/v1/posts", payload)
	second := doJSON(r, http.MethodPost, "/api/v1/posts", payload)
	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b models.Post
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, "same-title", a.Slug)
	assert.True(t, strings.HasPrefix(b.Slug, "same-title-"))
	assert.NotEqual(t, a.Slug, b.Slug)
}

func TestStore_SanitizesMarkup(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"topicId": 1,
		"title":   "A <script>alert(1)</script> title",
		"body":    "body with <img src=x onerror=alert(1)> markup",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &post))
	assert.NotContains(t, post.Title, "<script>")
	assert.NotContains(t, post.Body, "<img")
}

func TestShow_FoundAndNotFound(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["hello-world"] = &models.Post{ID: 7, Slug: "hello-world", Title: "Hello World"}
	r, _ := setupController(posts, newStubCommentRepo())

	found := doJSON(r, http.MethodGet, "/api/v1/posts/hello-world", nil)
	require.Equal(t, http.StatusOK, found.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(found.Body.Bytes(), &post))
	assert.Equal(t, "Hello World", post.Title)

	missing := doJSON(r, http.MethodGet, "/api/v1/posts/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(missing.Body.Bytes(), &body))
	assert.Equal(t, "Не найдено!", body["message"])
}

func TestCreateThenFetch_EndToEnd(t *testing.T) {
	posts := newStubPostRepo()
	r, _ := setupController(posts, newStubCommentRepo())

	created := doJSON(r, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"topicId": 1,
		"title":   "Hello World",
		"body":    "first post body",
	})
	require.Equal(t, http.StatusCreated, created.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &post))
	require.NotEmpty(t, post.Slug)

	fetched := doJSON(r, http.MethodGet, "/api/v1/posts/"+post.Slug, nil)
	require.Equal(t, http.StatusOK, fetched.Code)
	var roundTrip models.Post
	require.NoError(t, json.Unmarshal(fetched.Body.Bytes(), &roundTrip))
	assert.Equal(t, "Hello World", roundTrip.Title)
}

func TestGetComments_NotFoundPost(t *testing.T) {
	r, _ := setupController(newStubPostRepo(), newStubCommentRepo())

	resp := doJSON(r, http.MethodGet, "/api/v1/posts/missing/comments", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), utils.MsgNotFound)
}

func TestGetComments_PaginatesWithLinks(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post"}
	comments := newStubCommentRepo()
	for i := 0; i < 5; i++ {
		comments.byPost[3] = append(comments.byPost[3], models.Comment{ID: uint(i + 1), PostID: 3, CommentBody: "a comment"})
	}
	r, _ := setupController(posts, comments)

	resp := doJSON(r, http.MethodGet, "/api/v1/posts/my-post/comments?page=2&size=2", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body utils.Paginated
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Meta.Total)
	assert.Equal(t, 2, body.Meta.CurrentPage)
	assert.Equal(t, 3, body.Meta.LastPage)
	assert.Equal(t, "/api/v1/posts/my-post/comments?size=2&page=1", body.Meta.FirstPageURL)
	require.NotNil(t, body.Meta.NextPageURL)
	assert.Equal(t, "/api/v1/posts/my-post/comments?size=2&page=3", *body.Meta.NextPageURL)
	require.NotNil(t, body.Meta.PreviousPageURL)
	assert.Equal(t, "/api/v1/posts/my-post/comments?size=2&page=1", *body.Meta.PreviousPageURL)
}

func TestStoreComment_RequiresAuthentication(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post"}
	comments := newStubCommentRepo()
	pc := NewPostController(posts, comments, zap.NewNop())
	r := testutils.SetupTestRouter()
	r.POST("/api/v1/posts/:slug/comments", pc.StoreComment)

	resp := doJSON(r, http.MethodPost, "/api/v1/posts/my-post/comments", map[string]interface{}{
		"commentBody": "a valid comment",
	})

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), utils.MsgUnauthorized)
	assert.Empty(t, comments.byPost[3])
}

func TestStoreComment_CreatesCommentForAuthenticatedUser(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post"}
	comments := newStubCommentRepo()
	pc := NewPostController(posts, comments, zap.NewNop())
	r := testutils.SetupTestRouter()
	r.POST("/api/v1/posts/:slug/comments", authAs(42), pc.StoreComment)

	resp := doJSON(r, http.MethodPost, "/api/v1/posts/my-post/comments", map[string]interface{}{
		"commentBody": "a valid comment",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	var comment models.Comment
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &comment))
	assert.Equal(t, uint(42), comment.UserID)
	assert.Equal(t, uint(3), comment.PostID)
	assert.NotEmpty(t, comment.Slug)
	assert.Equal(t, "a valid comment", comment.CommentBody)
}

func TestStoreComment_ValidatesBody(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post"}
	comments := newStubCommentRepo()
	pc := NewPostController(posts, comments, zap.NewNop())
	r := testutils.SetupTestRouter()
	r.POST("/api/v1/posts/:slug/comments", authAs(42), pc.StoreComment)

	resp := doJSON(r, http.MethodPost, "/api/v1/posts/my-post/comments", map[string]interface{}{
		"commentBody": "ab",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errs []utils.FieldError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "commentBody", errs[0].Field)
	assert.Equal(t, "min", errs[0].Rule)
	assert.Empty(t, comments.byPost[3])
}

func TestUpdate_PartialMergeKeepsOtherFields(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{
		ID: 3, Slug: "my-post", TopicID: 9,
		Title: "Old Title", Body: "old body text",
	}
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPatch, "/api/v1/posts/my-post", map[string]interface{}{
		"title": "New Title",
	})

	require.Equal(t, http.StatusOK, resp.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &post))
	assert.Equal(t, "New Title", post.Title)
	assert.Equal(t, "old body text", post.Body, "body must be untouched")
	assert.Equal(t, uint(9), post.TopicID, "topicId must be untouched")
	assert.Equal(t, "my-post", post.Slug, "slug is immutable")
}

func TestUpdate_InvalidField_Returns400(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post", Title: "Old Title", Body: "old body"}
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodPatch, "/api/v1/posts/my-post", map[string]interface{}{
		"body": "шорт",
	})

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, posts.updated)
}

func TestUpdate_NotFound(t *testing.T) {
	r, _ := setupController(newStubPostRepo(), newStubCommentRepo())

	resp := doJSON(r, http.MethodPatch, "/api/v1/posts/missing", map[string]interface{}{
		"title": "New Title",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDestroy_DeletesPost(t *testing.T) {
	posts := newStubPostRepo()
	posts.bySlug["my-post"] = &models.Post{ID: 3, Slug: "my-post"}
	r, _ := setupController(posts, newStubCommentRepo())

	resp := doJSON(r, http.MethodDelete, "/api/v1/posts/my-post", nil)

	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, []uint{3}, posts.deleted)

	again := doJSON(r, http.MethodDelete, "/api/v1/posts/my-post", nil)
	require.Equal(t, http.StatusNotFound, again.Code)
}
