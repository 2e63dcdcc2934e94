// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

// Keywords that trigger automatic web search. Matching is lower-cased
// substring containment, not tokenized: "nowhere" matches "now". That
// bias is deliberate: a missed search is unrecoverable within the
// turn, an unnecessary one only costs latency.
var searchKeywords = []string{
	// Search actions
	"search", "look up", "find", "google", "browse", "check", "lookup",
	"search for", "find out", "discover", "investigate", "research",

	// Time-sensitive
	"latest", "current", "today", "now", "recent", "newest", "updated",
	"this week", "this month", "this year", "yesterday", "tomorrow",
	"breaking", "live", "real-time", "up-to-date", "contemporary",

	// News & events
	"news", "happening", "event", "announcement", "release", "launch",
	"update", "report", "headline", "story", "breaking news",

	// Question starters
	"what is", "who is", "when did", "where is", "how much", "how many",
	"what are", "who are", "when was", "when will", "where are",
	"what kind of", "which is", "why did", "how did", "how to find",

	// Current information
	"weather", "temperature", "forecast", "climate",
	"stock", "price", "cost", "value", "rate", "exchange rate",
	"score", "result", "winner", "ranking", "standings",

	// Statistics & data
	"statistics", "stats", "data", "numbers", "figure", "count",
	"population", "gdp", "revenue", "sales", "market",

	// Location-based
	"near me", "nearby", "around", "local", "in my area",
	"location", "address", "directions", "map",

	// Availability & status
	"available", "open", "closed", "operating hours", "schedule",
	"status", "is working", "is down", "outage",

	// Comparisons
	"compare", "versus", "vs", "difference between", "better than",
	"best", "top", "highest", "lowest", "cheapest", "most expensive",

	// Reviews & opinions
	"review", "rating", "opinion", "feedback", "recommendation",
	"recommended", "popular", "trending", "viral",

	// Technology & products
	"download", "install", "buy", "purchase", "order",
	"release date", "specifications", "specs", "features",
	"compatibility", "requirements", "version",

	// Sports
	"game", "match", "tournament", "championship", "league",
	"playoff", "final", "season", "team", "player",

	// Entertainment
	"movie", "show", "series", "episode", "trailer",
	"concert", "tour", "album", "song", "artist",

	// Business & finance
	"company", "ceo", "earnings", "profit", "loss",
	"merger", "acquisition", "ipo", "shares", "dividend",

	// Health & medical (current info)
	"outbreak", "epidemic", "pandemic", "vaccine", "treatment",
	"hospital", "clinic", "doctor", "appointment",

	// Travel
	"flight", "hotel", "booking", "reservation", "ticket",
	"destination", "travel", "tourism", "visa",

	// Government & politics
	"election", "vote", "poll", "candidate", "president",
	"prime minister", "government", "policy", "law", "bill",

	// Education
	"university", "college", "admission", "deadline", "course",
	"scholarship", "ranking", "accreditation",

	// Jobs & careers
	"job", "hiring", "salary", "career", "opening",
	"vacancy", "position", "employment", "recruitment",
}
