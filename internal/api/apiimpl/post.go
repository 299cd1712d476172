package apiimpl

import (
	"context"
	"time"

	"github.com/machinebox/graphql"

	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/domain"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
)

const allPostsQuery = `
query {
	allPosts {
		id
		content
		status
		imageUrl
		createdAt
		scheduledAt
	}
}`

func (i *Impl) AllPosts(ctx context.Context) ([]domain.Post, error) {
	req := graphql.NewRequest(allPostsQuery)

	var resp struct {
		AllPosts []wirePost `json:"allPosts"`
	}
	if err := i.run(ctx, "allPosts", req, &resp); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(resp.AllPosts))
	for _, w := range resp.AllPosts {
		posts = append(posts, decodePost(w))
	}
	return posts, nil
}

func (i *Impl) Me(ctx context.Context) (*domain.User, error) {
	req := graphql.NewRequest(`
query {
	me {
		id
		username
		email
		isAdmin
	}
}`)

	var resp struct {
		Me *wireUser `json:"me"`
	}
	if err := i.run(ctx, "me", req, &resp); err != nil {
		return nil, err
	}
	if resp.Me == nil {
		return nil, apperrors.ErrUnauthorized
	}
	user := decodeUser(*resp.Me)
	return &user, nil
}

func scheduleVar(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func (i *Impl) CreatePost(ctx context.Context, input api.CreatePostInput) (*api.MutationResult, error) {
	req := graphql.NewRequest(`
mutation CreatePost($content: String!, $imageUrl: String, $scheduledAt: String, $recaptchaToken: String!) {
	createPost(content: $content, imageUrl: $imageUrl, scheduledAt: $scheduledAt, recaptchaToken: $recaptchaToken) {
		success
		message
		post {
			id
			content
			status
			imageUrl
			createdAt
			scheduledAt
		}
	}
}`)
	req.Var("content", input.Content)
	req.Var("imageUrl", orNil(input.ImageURL))
	req.Var("scheduledAt", scheduleVar(input.ScheduledAt))
	req.Var("recaptchaToken", input.VerificationToken)

	var resp struct {
		CreatePost wireMutationResult `json:"createPost"`
	}
	if err := i.run(ctx, "createPost", req, &resp); err != nil {
		return nil, err
	}
	return decodeMutationResult(resp.CreatePost), nil
}

func (i *Impl) GeneratePost(ctx context.Context, input api.GeneratePostInput) (*api.MutationResult, error) {
	req := graphql.NewRequest(`
mutation GeneratePost($theme: String!, $tone: String, $length: String, $imageUrl: String, $scheduledAt: String, $recaptchaToken: String!) {
	generatePost(theme: $theme, tone: $tone, length: $length, imageUrl: $imageUrl, scheduledAt: $scheduledAt, recaptchaToken: $recaptchaToken) {
		success
		message
		post {
			id
			content
			status
			imageUrl
			createdAt
			scheduledAt
		}
	}
}`)
	req.Var("theme", input.Theme)
	req.Var("tone", orNil(input.Tone))
	req.Var("length", orNil(input.Length))
	req.Var("imageUrl", orNil(input.ImageURL))
	req.Var("scheduledAt", scheduleVar(input.ScheduledAt))
	req.Var("recaptchaToken", input.VerificationToken)

	var resp struct {
		GeneratePost wireMutationResult `json:"generatePost"`
	}
	if err := i.run(ctx, "generatePost", req, &resp); err != nil {
		return nil, err
	}
	return decodeMutationResult(resp.GeneratePost), nil
}

func (i *Impl) GenerateImage(ctx context.Context, prompt, verificationToken string) (*api.ImageResult, error) {
	req := graphql.NewRequest(`
mutation GenerateImage($prompt: String!, $recaptchaToken: String!) {
	generateImage(prompt: $prompt, recaptchaToken: $recaptchaToken) {
		success
		message
		imageUrl
	}
}`)
	req.Var("prompt", prompt)
	req.Var("recaptchaToken", verificationToken)

	var resp struct {
		GenerateImage struct {
			Success  bool   `json:"success"`
			Message  string `json:"message"`
			ImageURL string `json:"imageUrl"`
		} `json:"generateImage"`
	}
	if err := i.run(ctx, "generateImage", req, &resp); err != nil {
		return nil, err
	}
	return &api.ImageResult{
		Success:  resp.GenerateImage.Success,
		Message:  resp.GenerateImage.Message,
		ImageURL: resp.GenerateImage.ImageURL,
	}, nil
}

func (i *Impl) UpdatePost(ctx context.Context, input api.UpdatePostInput) (*domain.Post, error) {
	req := graphql.NewRequest(`
mutation UpdatePost($id: Int!, $content: String, $imageUrl: String, $status: String, $scheduledAt: String) {
	updatePost(id: $id, content: $content, imageUrl: $imageUrl, status: $status, scheduledAt: $scheduledAt) {
		post {
			id
			content
			status
			imageUrl
			createdAt
			scheduledAt
		}
	}
}`)
	req.Var("id", input.ID)
	req.Var("content", orNilPtr(input.Content))
	req.Var("imageUrl", orNilPtr(input.ImageURL))
	req.Var("status", orNilPtr(input.Status))
	if input.ScheduledAt != nil && input.ScheduledAt.IsZero() {
		req.Var("scheduledAt", "")
	} else {
		req.Var("scheduledAt", scheduleVar(input.ScheduledAt))
	}

	var resp struct {
		UpdatePost struct {
			Post *wirePost `json:"post"`
		} `json:"updatePost"`
	}
	if err := i.run(ctx, "updatePost", req, &resp); err != nil {
		return nil, err
	}
	if resp.UpdatePost.Post == nil {
		return nil, apperrors.Transport(nil, "update was not applied")
	}
	post := decodePost(*resp.UpdatePost.Post)
	return &post, nil
}

func (i *Impl) DeletePost(ctx context.Context, id int) error {
	req := graphql.NewRequest(`
mutation DeletePost($id: Int!) {
	deletePost(id: $id) {
		ok
	}
}`)
	req.Var("id", id)

	var resp struct {
		DeletePost struct {
			OK bool `json:"ok"`
		} `json:"deletePost"`
	}
	if err := i.run(ctx, "deletePost", req, &resp); err != nil {
		return err
	}
	if !resp.DeletePost.OK {
		return apperrors.Transport(nil, "delete was not applied")
	}
	return nil
}

func (i *Impl) PublishPost(ctx context.Context, id int) (*domain.Post, error) {
	req := graphql.NewRequest(`
mutation PublishPost($id: Int!) {
	publishPost(id: $id) {
		post {
			id
			content
			status
			imageUrl
			createdAt
			scheduledAt
		}
	}
}`)
	req.Var("id", id)

	var resp struct {
		PublishPost struct {
			Post *wirePost `json:"post"`
		} `json:"publishPost"`
	}
	if err := i.run(ctx, "publishPost", req, &resp); err != nil {
		return nil, err
	}
	if resp.PublishPost.Post == nil {
		return nil, apperrors.Transport(nil, "publish was not applied")
	}
	post := decodePost(*resp.PublishPost.Post)
	return &post, nil
}

type wireMutationResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Post    *wirePost `json:"post"`
}

func decodeMutationResult(w wireMutationResult) *api.MutationResult {
	res := &api.MutationResult{
		Success: w.Success,
		Message: w.Message,
	}
	if w.Post != nil {
		post := decodePost(*w.Post)
		res.Post = &post
	}
	return res
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orNilPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
