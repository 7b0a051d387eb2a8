package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrQueueFull      = errors.New("capture queue is full")
	ErrInvalidVote    = errors.New("invalid vote value")
	ErrInvalidArticle = errors.New("invalid article")
)
