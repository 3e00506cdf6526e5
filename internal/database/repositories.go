package database

import (
	"github.com/courseflix/courseflix-api/internal/conversation"
	"github.com/courseflix/courseflix-api/internal/recommendation"
)

// Compile-time checks that the concrete repositories satisfy the interfaces
// their consumers define.
var (
	_ recommendation.CourseRepository    = (*CourseRepository)(nil)
	_ recommendation.UserRepository      = (*UserRepository)(nil)
	_ recommendation.AnalyticsRepository = (*AnalyticsRepository)(nil)
	_ conversation.ContextStore          = (*ConversationRepository)(nil)
	_ conversation.ConversationLister    = (*ConversationRepository)(nil)
)
