// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package alert pushes Discord embeds for events an unattended miner
// operator should see without tailing logs: accepted blocks and terminal
// session failures (auth rejection, repeated connection loss).
package alert

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"
)

// Notifier wraps a Discord webhook client; a nil *Notifier is a valid
// no-op so callers need not branch on whether alerting is configured.
type Notifier struct {
	client webhook.Client
}

// New parses webhookURL and returns a ready Notifier. An empty URL
// yields a nil *Notifier (alerting disabled).
func New(webhookURL string) (*Notifier, error) {
	if webhookURL == "" {
		return nil, nil
	}

	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("alert: invalid webhook url: %w", err)
	}

	return &Notifier{client: client}, nil
}

func (n *Notifier) send(embed discord.Embed) {
	if n == nil {
		return
	}
	// fire-and-forget: a dropped alert must never block mining.
	go func() {
		_, _ = n.client.CreateEmbeds([]discord.Embed{embed})
	}()
}

// BlockAccepted alerts on a confirmed submission (§7 success path).
func (n *Notifier) BlockAccepted(height uint32, channel uint8) {
	n.send(discord.NewEmbedBuilder().
		SetTitlef("Block accepted at height %d", height).
		SetDescriptionf("channel %d", channel).
		SetColor(0x2ecc71).
		Build())
}

// AuthRejected alerts on the terminal AUTH_FAILED state (§7 failure
// path): the miner leaves the connection open and authenticates again
// only after the connection drops and is re-dialed, so this is the
// operator's only signal short of reading logs.
func (n *Notifier) AuthRejected(reason string) {
	n.send(discord.NewEmbedBuilder().
		SetTitle("Authentication rejected").
		SetDescription(reason).
		SetColor(0xe74c3c).
		Build())
}

// ConnectionUnstable alerts once connection loss has recurred enough
// times in a row to suggest a persistent rather than transient fault.
func (n *Notifier) ConnectionUnstable(consecutiveFailures int) {
	n.send(discord.NewEmbedBuilder().
		SetTitlef("%d consecutive connection failures", consecutiveFailures).
		SetDescription("check wallet_ip/port and node availability").
		SetColor(0xf39c12).
		Build())
}
