package catalog

// Feature is a key in a plan's feature map.
type Feature string

// Known feature keys. Keys outside this vocabulary resolve to an absent
// value, never to an error.
const (
	FeatureMaxExams             Feature = "max_exams"
	FeatureAIAnalysis           Feature = "ai_analysis"
	FeatureExamTopics           Feature = "exam_topics"
	FeatureAdvancedReports      Feature = "advanced_reports"
	FeatureParentDashboard      Feature = "parent_dashboard"
	FeatureHomeworkTracking     Feature = "homework_tracking"
	FeatureStudyRecommendations Feature = "study_recommendations"
	FeaturePrioritySupport      Feature = "priority_support"
	FeatureCustomGoals          Feature = "custom_goals"

	// FeatureLimitedContent is a legacy key with inverted semantics: false
	// means the plan has unrestricted content access. Only the entitlement
	// resolver reads it; callers ask for the positive capability instead.
	FeatureLimitedContent Feature = "limited_content"
)

const (
	// Unlimited indicates no limit for an integer feature (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// ValueKind discriminates the closed set of feature value shapes.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota // key not present in the plan
	KindBool
	KindLimit
	KindUnlimited
)

// Value is a typed feature value: a boolean flag, an integer limit, or
// unlimited. The zero Value is absent.
type Value struct {
	kind    ValueKind
	enabled bool
	limit   int64
}

// BoolValue returns a boolean flag value.
func BoolValue(enabled bool) Value {
	return Value{kind: KindBool, enabled: enabled}
}

// LimitValue returns an integer limit value. The Unlimited sentinel is
// normalized to an unlimited value so the raw -1 never leaks to callers.
func LimitValue(n int64) Value {
	if n == Unlimited {
		return UnlimitedValue()
	}
	return Value{kind: KindLimit, limit: n}
}

// UnlimitedValue returns a value with no limit.
func UnlimitedValue() Value {
	return Value{kind: KindUnlimited}
}

// Kind returns the value's shape discriminator.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Absent reports whether the key was not present in the plan.
func (v Value) Absent() bool {
	return v.kind == KindAbsent
}

// Enabled returns the boolean flag. Absent values and limit values report
// false, so a missing key always denies.
func (v Value) Enabled() bool {
	switch v.kind {
	case KindBool:
		return v.enabled
	case KindUnlimited:
		return true
	case KindLimit:
		return v.limit > 0
	default:
		return false
	}
}

// Limit returns the integer limit and true for limit values. Unlimited and
// non-numeric values return (0, false); use IsUnlimited to distinguish.
func (v Value) Limit() (int64, bool) {
	if v.kind != KindLimit {
		return 0, false
	}
	return v.limit, true
}

// IsUnlimited reports whether the value carries no limit.
func (v Value) IsUnlimited() bool {
	return v.kind == KindUnlimited
}

// FeatureMap maps feature keys to typed values.
type FeatureMap map[Feature]Value

// Get returns the value for a key, or an absent value when the key is not
// defined. It never fails on unknown keys.
func (m FeatureMap) Get(key Feature) Value {
	if m == nil {
		return Value{}
	}
	return m[key]
}

// Clone returns a shallow copy of the map. Values are immutable so a
// shallow copy is a safe snapshot.
func (m FeatureMap) Clone() FeatureMap {
	if m == nil {
		return nil
	}
	out := make(FeatureMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
