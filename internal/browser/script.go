package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"uibench/internal/benchmark"
)

// apiReadyExpr is truthy once every entry point is a function on window.
func apiReadyExpr(entries []benchmark.EntryPoint) string {
	checks := make([]string, len(entries))
	for i, e := range entries {
		checks[i] = fmt.Sprintf("typeof window[%s] === \"function\"", jsString(string(e)))
	}
	return "(" + strings.Join(checks, " && ") + ")"
}

// invokeExpr calls an entry point and resolves to its result, or null when the
// function is missing, throws, or resolves undefined.
func invokeExpr(entry benchmark.EntryPoint, args any) (string, error) {
	argList := ""
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("failed to encode arguments for %s: %w", entry, err)
		}
		argList = string(data)
	}

	return fmt.Sprintf(`(async () => {
  const fn = window[%s];
  if (typeof fn !== "function") return null;
  try {
    const r = await fn(%s);
    return r === undefined ? null : r;
  } catch (e) {
    return null;
  }
})()`, jsString(string(entry)), argList), nil
}

// rowCountExpr counts the tr elements under the first element matching selector.
func rowCountExpr(selector string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  return el ? el.querySelectorAll("tr").length : 0;
})()`, jsString(selector))
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
