// Package cache stores computed leaderboards for the read path.
//
// Boards are recomputed by the refresh job and served from a BoardCache
// until the next refresh. RedisBoardCache shares boards across API instances;
// MemoryBoardCache is the single-process fallback when Redis is disabled.
// Both return ErrMiss for absent or expired boards.
package cache
