package apiimpl

import (
	"context"

	"github.com/machinebox/graphql"

	"github.com/linkpost/linkpost-bot/internal/domain"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
)

func (i *Impl) AllUsers(ctx context.Context) ([]domain.User, error) {
	req := graphql.NewRequest(`
query GetAllUsers {
	allUsers {
		id
		username
		email
		isAdmin
		isActive
		createdAt
	}
}`)

	var resp struct {
		AllUsers []wireUser `json:"allUsers"`
	}
	if err := i.run(ctx, "allUsers", req, &resp); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(resp.AllUsers))
	for _, w := range resp.AllUsers {
		users = append(users, decodeUser(w))
	}
	return users, nil
}

func (i *Impl) UpdateUserStatus(ctx context.Context, userID string, active bool) error {
	req := graphql.NewRequest(`
mutation UpdateUserStatus($userId: ID!, $isActive: Boolean!) {
	updateUserStatus(userId: $userId, isActive: $isActive) {
		ok
	}
}`)
	req.Var("userId", userID)
	req.Var("isActive", active)

	var resp struct {
		UpdateUserStatus struct {
			OK bool `json:"ok"`
		} `json:"updateUserStatus"`
	}
	if err := i.run(ctx, "updateUserStatus", req, &resp); err != nil {
		return err
	}
	if !resp.UpdateUserStatus.OK {
		return apperrors.Transport(nil, "user status update was not applied")
	}
	return nil
}

func (i *Impl) PromoteToAdmin(ctx context.Context, userID string) error {
	req := graphql.NewRequest(`
mutation PromoteToAdmin($userId: ID!) {
	promoteToAdmin(userId: $userId) {
		ok
	}
}`)
	req.Var("userId", userID)

	var resp struct {
		PromoteToAdmin struct {
			OK bool `json:"ok"`
		} `json:"promoteToAdmin"`
	}
	if err := i.run(ctx, "promoteToAdmin", req, &resp); err != nil {
		return err
	}
	if !resp.PromoteToAdmin.OK {
		return apperrors.Transport(nil, "promotion was not applied")
	}
	return nil
}

func (i *Impl) DeleteUser(ctx context.Context, userID string) error {
	req := graphql.NewRequest(`
mutation DeleteUser($userId: ID!) {
	deleteUser(userId: $userId) {
		ok
	}
}`)
	req.Var("userId", userID)

	var resp struct {
		DeleteUser struct {
			OK bool `json:"ok"`
		} `json:"deleteUser"`
	}
	if err := i.run(ctx, "deleteUser", req, &resp); err != nil {
		return err
	}
	if !resp.DeleteUser.OK {
		return apperrors.Transport(nil, "user delete was not applied")
	}
	return nil
}

func (i *Impl) UpdatePostStatus(ctx context.Context, postID int, status string) error {
	req := graphql.NewRequest(`
mutation UpdatePostStatusAdmin($postId: ID!, $status: String!) {
	updatePostStatusAdmin(postId: $postId, status: $status) {
		ok
	}
}`)
	req.Var("postId", postID)
	req.Var("status", status)

	var resp struct {
		UpdatePostStatusAdmin struct {
			OK bool `json:"ok"`
		} `json:"updatePostStatusAdmin"`
	}
	if err := i.run(ctx, "updatePostStatusAdmin", req, &resp); err != nil {
		return err
	}
	if !resp.UpdatePostStatusAdmin.OK {
		return apperrors.Transport(nil, "post status override was not applied")
	}
	return nil
}

func (i *Impl) DeletePostAdmin(ctx context.Context, postID int) error {
	req := graphql.NewRequest(`
mutation DeletePostAdmin($postId: ID!) {
	deletePostAdmin(postId: $postId) {
		ok
	}
}`)
	req.Var("postId", postID)

	var resp struct {
		DeletePostAdmin struct {
			OK bool `json:"ok"`
		} `json:"deletePostAdmin"`
	}
	if err := i.run(ctx, "deletePostAdmin", req, &resp); err != nil {
		return err
	}
	if !resp.DeletePostAdmin.OK {
		return apperrors.Transport(nil, "admin post delete was not applied")
	}
	return nil
}
