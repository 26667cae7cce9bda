package sync

// FilterUserMessages decides the operation for every message. The first matching
// rule wins: batch, segment membership, email.
func FilterUserMessages(settings Settings, messages []HullUserUpdateMessage, isBatch bool) []WorkEnvelope {
	synchronized := map[string]bool{}
	for _, id := range settings.SynchronizedSegmentIDs() {
		synchronized[id] = true
	}

	result := make([]WorkEnvelope, 0, len(messages))
	for _, message := range messages {
		switch {
		case isBatch:
			result = append(result, newWorkEnvelope(message, OperationSkip, SkipReasonBatch))
		case !inSynchronizedSegment(message, synchronized):
			result = append(result, newWorkEnvelope(message, OperationSkip, SkipReasonNoSegment))
		case !hasEmail(message):
			result = append(result, newWorkEnvelope(message, OperationSkip, SkipReasonNoEmail))
		default:
			result = append(result, newWorkEnvelope(message, OperationInsert, ""))
		}
	}
	return result
}

func inSynchronizedSegment(message HullUserUpdateMessage, synchronized map[string]bool) bool {
	for _, id := range message.SegmentIDs() {
		if synchronized[id] {
			return true
		}
	}
	return false
}

func hasEmail(message HullUserUpdateMessage) bool {
	_, ok := message.User.Email()
	return ok
}
