package memory

import "time"

// Turn is one immutable append to a thread's history. Files and images are
// only ever added with new turns, never edited in place; a revision is a
// whole new turn.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Files     []string  `json:"files,omitempty"`
	Images    []string  `json:"images,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
}

// ThreadContext is a persisted conversation shared across tool
// invocations. ParentThreadID is a weak reference: it records the relation
// only, the parent may expire or be deleted independently and a dangling id
// is a valid state.
type ThreadContext struct {
	ThreadID       string         `json:"thread_id"`
	ParentThreadID string         `json:"parent_thread_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastUpdatedAt  time.Time      `json:"last_updated_at"`
	ToolName       string         `json:"tool_name"`
	Turns          []Turn         `json:"turns"`
	InitialContext map[string]any `json:"initial_context,omitempty"`
}

// ImageList collects image references from the context's turns walking
// newest to oldest. A reference appearing in several turns keeps only its
// newest occurrence, at that occurrence's position. Order within a single
// turn is preserved as stored. Aggregation across parent links is the
// caller's job: call once per context in the chain and merge.
func ImageList(tc *ThreadContext) []string {
	return collectNewestFirst(tc, func(t Turn) []string { return t.Images })
}

// FileList is ImageList for file references, with identical ordering and
// dedup semantics.
func FileList(tc *ThreadContext) []string {
	return collectNewestFirst(tc, func(t Turn) []string { return t.Files })
}

func collectNewestFirst(tc *ThreadContext, refs func(Turn) []string) []string {
	if tc == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for i := len(tc.Turns) - 1; i >= 0; i-- {
		for _, ref := range refs(tc.Turns[i]) {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}
