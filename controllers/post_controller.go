package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forumhub/forumhub/config"
	"github.com/forumhub/forumhub/middleware"
	"github.com/forumhub/forumhub/models"
	"github.com/forumhub/forumhub/repository"
	"github.com/forumhub/forumhub/utils"
)

// PostController handles the posts resource and its nested comments.
type PostController struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	logger   *zap.Logger
}

// NewPostController creates a PostController over the given repositories.
func NewPostController(posts repository.PostRepository, comments repository.CommentRepository, logger *zap.Logger) *PostController {
	return &PostController{posts: posts, comments: comments, logger: logger}
}

type createPostInput struct {
	TopicID *uint   `json:"topicId" validate:"required"`
	Title   *string `json:"title" validate:"required,min=3,max=200"`
	Body    *string `json:"body" validate:"required,min=5"`
}

type updatePostInput struct {
	TopicID *uint   `json:"topicId"`
	Title   *string `json:"title" validate:"omitempty,min=3,max=200"`
	Body    *string `json:"body" validate:"omitempty,min=5"`
}

type createCommentInput struct {
	CommentBody *string `json:"commentBody" validate:"required,min=3,max=200"`
}

// Index lists posts: optional sort/order, free-text search over title and
// body, and offset pagination when both page and size are positive.
func (p *PostController) Index(ctx *gin.Context) {
	page := atoiDefault(ctx.Query("page"), 0)
	size := atoiDefault(ctx.Query("size"), -1)

	opts := repository.ListPostsOptions{
		Page:   page,
		Size:   size,
		Sort:   ctx.Query("sort"),
		Order:  ctx.Query("order"),
		Search: strings.TrimSpace(ctx.Query("search")),
	}

	posts, total, err := p.posts.List(ctx, opts)
	if err != nil {
		p.internal(ctx, "list posts", err)
		return
	}

	meta := gin.H{"total": total}
	if page > 0 && size > 0 {
		meta["page"] = page
		meta["size"] = size
		meta["lastPage"] = utils.LastPage(total, size)
	}
	ctx.JSON(http.StatusOK, gin.H{"meta": meta, "data": posts})
}

// Store creates a post. The author is the authenticated user, or the
// configured anonymous fallback when no identity is present.
func (p *PostController) Store(ctx *gin.Context) {
	var in createPostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.ValidationFailed(ctx, bindErrors(err))
		return
	}
	trimString(&in.Title)
	trimString(&in.Body)
	if errs := utils.ValidateStruct(&in); errs != nil {
		utils.ValidationFailed(ctx, errs)
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		userID = config.Get().FallbackUserID
	}

	slug, err := utils.UniqueSlug(*in.Title, func(candidate string) (bool, error) {
		return p.posts.SlugExists(ctx, candidate)
	})
	if err != nil {
		p.internal(ctx, "allocate slug", err)
		return
	}

	post := &models.Post{
		UserID:  userID,
		TopicID: *in.TopicID,
		Slug:    slug,
		Title:   utils.Sanitize(*in.Title),
		Body:    utils.Sanitize(*in.Body),
	}
	if err := p.posts.Create(ctx, post); err != nil {
		p.internal(ctx, "create post", err)
		return
	}

	ctx.JSON(http.StatusCreated, post)
}

// Show returns one post by slug with its user attached.
func (p *PostController) Show(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, post)
}

// GetComments lists one page of a post's comments. Pagination links are
// anchored at the nested collection URL and echo the original size parameter.
func (p *PostController) GetComments(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}

	page := atoiDefault(ctx.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	size := atoiDefault(ctx.Query("size"), 20)
	if size < 1 {
		size = 20
	}

	comments, total, err := p.comments.ListByPost(ctx, post.ID, page, size)
	if err != nil {
		p.internal(ctx, "list comments", err)
		return
	}

	baseURL := "/api/v1/posts/" + post.Slug + "/comments"
	ctx.JSON(http.StatusOK, utils.NewPaginated(comments, total, page, size, baseURL, ctx.Query("size")))
}

// StoreComment creates a comment on a post. Unlike Store there is no
// anonymous fallback: an authenticated user is required.
func (p *PostController) StoreComment(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}

	userID, authed := middleware.CurrentUserID(ctx)
	if !authed {
		utils.ErrorMessage(ctx, http.StatusUnauthorized, utils.MsgUnauthorized)
		return
	}

	var in createCommentInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.ValidationFailed(ctx, bindErrors(err))
		return
	}
	trimString(&in.CommentBody)
	if errs := utils.ValidateStruct(&in); errs != nil {
		utils.ValidationFailed(ctx, errs)
		return
	}

	comment := &models.Comment{
		UserID:      userID,
		PostID:      post.ID,
		Slug:        utils.CommentSlug(*in.CommentBody),
		CommentBody: *in.CommentBody,
	}
	if err := p.comments.Create(ctx, comment); err != nil {
		p.internal(ctx, "create comment", err)
		return
	}

	ctx.JSON(http.StatusCreated, comment)
}

// Update merges the provided subset of mutable fields into the post. The slug
// is immutable and never touched.
func (p *PostController) Update(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}

	var in updatePostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.ValidationFailed(ctx, bindErrors(err))
		return
	}
	trimString(&in.Title)
	trimString(&in.Body)
	if errs := utils.ValidateStruct(&in); errs != nil {
		utils.ValidationFailed(ctx, errs)
		return
	}

	if in.TopicID != nil {
		post.TopicID = *in.TopicID
	}
	if in.Title != nil {
		post.Title = utils.Sanitize(*in.Title)
	}
	if in.Body != nil {
		post.Body = utils.Sanitize(*in.Body)
	}

	if err := p.posts.Update(ctx, post); err != nil {
		p.internal(ctx, "update post", err)
		return
	}

	ctx.JSON(http.StatusOK, post)
}

// Destroy deletes a post and its comments (comments first, one transaction).
func (p *PostController) Destroy(ctx *gin.Context) {
	post, ok := p.findPost(ctx)
	if !ok {
		return
	}

	if err := p.posts.Delete(ctx, post); err != nil {
		p.internal(ctx, "delete post", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// findPost resolves the slug path parameter, writing the 404/500 response
// itself when the post cannot be returned.
func (p *PostController) findPost(ctx *gin.Context) (*models.Post, bool) {
	post, err := p.posts.FindBySlug(ctx, ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.ErrorMessage(ctx, http.StatusNotFound, utils.MsgNotFound)
			return nil, false
		}
		p.internal(ctx, "find post", err)
		return nil, false
	}
	return post, true
}

// internal logs the underlying error and answers with the generic localized
// message; details never reach the caller.
func (p *PostController) internal(ctx *gin.Context, op string, err error) {
	p.logger.Error(op+" failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	utils.ErrorMessage(ctx, http.StatusInternalServerError, utils.MsgInternal)
}

// bindErrors converts a JSON binding failure into the validation error
// shape. A type mismatch on a known field (e.g. a string topicId) is reported
// against that field; anything else is a generic payload error.
func bindErrors(err error) []utils.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []utils.FieldError{{
			Rule:    "number",
			Field:   typeErr.Field,
			Message: utils.RuleMessage("number", typeErr.Field, ""),
		}}
	}
	return []utils.FieldError{{Rule: "invalid", Field: "", Message: utils.MsgBadPayload}}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func trimString(s **string) {
	if *s != nil {
		trimmed := strings.TrimSpace(**s)
		*s = &trimmed
	}
}
