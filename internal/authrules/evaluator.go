package authrules

import (
	"sort"
	"strings"
)

// Match returns the active rule with the lowest priority among those matching
// the service+method+path tuple, or nil when none match. Ties on priority are
// resolved by supplied order (stable sort); duplicate priorities are tolerated.
func Match(rules []Rule, service, method, path string) *Rule {
	candidates := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if rule.Service != service {
			continue
		}
		if !strings.EqualFold(rule.Method, method) {
			continue
		}
		if !targetMatches(rule, path) {
			continue
		}
		candidates = append(candidates, rule)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})
	matched := candidates[0]
	return &matched
}

// Authorize decides whether the principal satisfies the rule. Roles-any and
// permissions-any are alternative sufficient conditions; permissions-all is
// additionally required whenever non-empty. A rule with all three lists empty
// authorizes any principal: it is an explicit open rule.
func Authorize(rule Rule, principal Principal) bool {
	rolesSatisfied := len(rule.RolesAny) == 0 || anyRole(rule.RolesAny, principal)
	permAnySatisfied := len(rule.PermissionsAny) == 0 || anyPermission(rule.PermissionsAny, principal)
	permAllSatisfied := allPermissions(rule.PermissionsAll, principal)
	return (rolesSatisfied || permAnySatisfied) && permAllSatisfied
}

func anyRole(names []string, p Principal) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

func anyPermission(names []string, p Principal) bool {
	for _, n := range names {
		if p.HasPermission(n) {
			return true
		}
	}
	return false
}

func allPermissions(names []string, p Principal) bool {
	for _, n := range names {
		if !p.HasPermission(n) {
			return false
		}
	}
	return true
}

func targetMatches(rule Rule, path string) bool {
	if rule.PathPattern != "" {
		return matchPattern(rule.PathPattern, path)
	}
	if rule.RouteName != "" {
		return rule.RouteName == path
	}
	return false
}

// matchPattern compares a pattern against a path segment by segment.
// `*` matches exactly one segment; a trailing `**` matches any remainder,
// including an empty one.
func matchPattern(pattern, path string) bool {
	patternSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	for i, seg := range patternSegs {
		if seg == "**" && i == len(patternSegs)-1 {
			return true
		}
		if i >= len(pathSegs) {
			return false
		}
		if seg == "*" {
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}
	return len(patternSegs) == len(pathSegs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
