package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the full HTTP surface. Auth routes that must work
// without an existing session (login) sit outside the protected group;
// everything else runs through Authenticate then EnforceCSRF.
func (s *Server) setupRoutes() {
	s.router.Post("/auth/login", s.handleLogin)

	s.router.Group(func(r chi.Router) {
		s.protected(r)

		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Post("/conversations", s.handleCreateConversation)
		r.Get("/conversations/{conversationID}/threads", s.handleListThreads)
		r.Get("/conversations/{conversationID}/unread", s.handleUnreadSummary)

		r.Get("/threads/{rootID}/tree", s.handleThreadTree)
		r.Post("/threads/{conversationID}/root", s.handlePostRoot)
		r.Post("/threads/{rootID}/read", s.handleMarkRead)

		r.Post("/messages/{parentID}/reply", s.handleReplyMessage)
		r.Post("/messages/{messageID}/edit", s.handleEditMessage)
		r.Post("/messages/{messageID}/delete", s.handleDeleteMessage)
		r.Post("/messages/{messageID}/restore", s.handleRestoreMessage)
		r.Get("/messages/{messageID}/chunks", s.handleListChunks)

		r.Post("/typing", s.handleTyping)
		r.Post("/presence/heartbeat", s.handleHeartbeat)

		r.Post("/v1/chat/completions", s.handleChatCompletions)

		r.Get("/stream/conversations/{conversationID}", s.handleStream)
	})
}
