// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"fmt"
	"strings"
)

// FormatSummary renders the counts of a report on one line.
func FormatSummary(r *Report) string {
	counts := r.Counts()
	parts := []string{}
	if n := counts[StatusNew]; n > 0 {
		parts = append(parts, fmt.Sprintf("✨ %d new", n))
	}
	if n := counts[StatusModified]; n > 0 {
		parts = append(parts, fmt.Sprintf("📝 %d modified", n))
	}
	if n := counts[StatusDeleted]; n > 0 {
		parts = append(parts, fmt.Sprintf("🗑️  %d deleted", n))
	}
	if n := counts[StatusUnchanged]; n > 0 {
		parts = append(parts, fmt.Sprintf("👍 %d unchanged", n))
	}
	if n := counts[StatusUnknown]; n > 0 {
		parts = append(parts, fmt.Sprintf("❌ %d unreadable", n))
	}
	if len(parts) == 0 {
		return "empty build"
	}
	return strings.Join(parts, "  ")
}
