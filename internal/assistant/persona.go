// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

// Fixed texts shown or sent by the assistant.
const (
	// PersonaInstruction opens every fallback conversation as a user turn.
	PersonaInstruction = "You are a friendly and helpful assistant for an NFT marketplace and the " +
		"MUSEO DE ARTE CONTEMPORANEO DE QUINTANA ROO. Be pleasant and informative. Prioritize " +
		"information from the provided NFT data if the question is about specific NFTs, their " +
		"prices, descriptions, or how to buy them. Only use general knowledge for other topics " +
		"or if local data is insufficient."

	// PersonaAcknowledgement is the model turn that answers PersonaInstruction.
	PersonaAcknowledgement = "Understood! I'm ready to help with information about our beautiful " +
		"NFTs and the wonderful MUSEO DE ARTE CONTEMPORANEO DE QUINTANA ROO. How can I assist " +
		"you today? I'll use my specific knowledge about the listed NFTs first."

	// UnavailableMessage is the reply when no fallback credential is set.
	UnavailableMessage = "I'm having trouble connecting to my knowledge base right now. Please try again later."

	// FailureMessage is the reply when the fallback call fails.
	FailureMessage = "I encountered an issue while trying to get that information. Please try asking in a different way."
)
