// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storefront

import (
	"time"

	"github.com/jeranaias/artdrop/internal/assistant"
	"github.com/jeranaias/artdrop/internal/claims"
	"github.com/jeranaias/artdrop/internal/session"
)

// replyMsg carries an assistant reply back to the event loop.
type replyMsg struct {
	pending session.Pending
	reply   assistant.Reply
}

// claimMsg reports the outcome of a claim request.
type claimMsg struct {
	req claims.Request
	err error
}

// reloadTickMsg triggers a catalog version check.
type reloadTickMsg time.Time
