package domain

// tagAmplification multiplies base strength when an event tag matches the
// channel vector's tag set. The product is capped at 1.0.
const tagAmplification = 1.2

// DropReason explains why a candidate hop did not produce an echo. Drops are
// expected control-flow outcomes, not errors; every drop is recorded in the
// audit trail so nothing is silently discarded.
type DropReason string

const (
	DropNone            DropReason = ""
	DropBelowThreshold  DropReason = "below_threshold"
	DropBleedDisabled   DropReason = "bleed_disabled"
	DropChannelInactive DropReason = "channel_inactive"
	DropDepthExceeded   DropReason = "depth_exceeded"
	DropBelowFloor      DropReason = "below_floor"
	DropCycle           DropReason = "cycle_detected"
	DropTransformFailed DropReason = "transform_failed"
)

// Verdict is the outcome of evaluating one candidate hop against one channel.
type Verdict struct {
	Qualifies          bool
	EffectiveThreshold int
	BaseStrength       float64
	Amplified          bool
	Reason             DropReason
}

// EvaluateThreshold decides whether an occurrence with the given impact and
// tags qualifies to cross the channel, and at what base strength. It is a
// pure function: identical inputs always yield the identical verdict.
//
// The effective threshold starts from the destination world's configured echo
// threshold, drops by one when the destination zone is unstable, drops by one
// more when the channel is highly effective, and never falls below one.
func EvaluateThreshold(impact int, tags []string, channel Channel, destination Settings, tunables Tunables) Verdict {
	threshold := destination.EchoThreshold
	if channel.ToZoneStability < tunables.LowStabilityCutoff {
		threshold--
	}
	if channel.Effectiveness >= tunables.HighEffectivenessCutoff {
		threshold--
	}
	if threshold < 1 {
		threshold = 1
	}

	strength := float64(impact) / 10
	amplified := channel.Embassy.Vector.Amplifies(tags)
	if amplified {
		strength *= tagAmplification
		if strength > 1 {
			strength = 1
		}
	}

	verdict := Verdict{
		EffectiveThreshold: threshold,
		BaseStrength:       strength,
		Amplified:          amplified,
	}

	switch {
	case channel.Embassy.Status != EmbassyActive:
		verdict.Reason = DropChannelInactive
	case !destination.BleedEnabled:
		verdict.Reason = DropBleedDisabled
	case impact < threshold:
		verdict.Reason = DropBelowThreshold
	default:
		verdict.Qualifies = true
	}
	return verdict
}
