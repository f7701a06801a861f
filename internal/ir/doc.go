// Package ir provides the canonical value and event types shared by every
// jokebox package.
//
// This package contains type definitions and canonical encoding only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// IR the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - scores and sequence numbers are int64
//   - Logical clocks (seq) only, never wall-clock timestamps
//   - All JSON tags use snake_case
//   - Content hashes use RFC 8785 canonical JSON with domain separation
package ir
