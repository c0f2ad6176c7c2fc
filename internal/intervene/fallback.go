package intervene

import (
	"strings"

	"github.com/gosuda/vigil/internal/domain"
)

// FallbackAdvice composes a reply for an unanswered question without any
// external help. Pure function of its inputs: the same question and context
// always produce the same reply. The preamble and bindings note always
// apply; exactly one of the keyword rules fires, picked in order.
func FallbackAdvice(question string, sctx domain.SessionContext) string {
	var b strings.Builder
	b.WriteString("Here's what I recommend based on the available context:\n\n")

	if len(sctx.Bindings) > 0 {
		b.WriteString("Declared bindings: ")
		b.WriteString(strings.Join(sctx.Bindings, ", "))
		b.WriteString(".\n\n")
	}

	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "error") || strings.Contains(q, "failed"):
		b.WriteString("1. Check the error detail for the failing step.\n")
		b.WriteString("2. Verify the required configuration and secrets are set.\n")
		b.WriteString("3. Verify the infrastructure bindings are correctly declared.\n")
	case strings.Contains(q, "how") || strings.Contains(q, "should"):
		b.WriteString("Proceed using your best judgment based on the stated requirements and common practice.\n")
	default:
		b.WriteString("Continue with the current approach.\n")
	}

	return b.String()
}
