// Package pgai implements the ai interfaces by calling the model through the
// database's ai extension (ai.openai_chat_complete and ai.openai_embed).
//
// The OpenAI API key never leaves the database session: each call runs on a
// pinned connection whose ai.openai_api_key setting is set before the call
// and cleared after it. Embeddings can also be produced inline, inside the
// statement that stores the chunk.
package pgai
