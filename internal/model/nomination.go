package model

import "time"

// Nomination is a paid request for a specific cast member's attention
// during a session.  The fee is snapshotted when the nomination is
// captured so a later fee change cannot alter what the guest owes.
// Multiple nominations may exist per session, one per nominated cast
// member.
//
// Fields:
//  ID            – primary key identifier.
//  SessionID     – session the nomination belongs to.
//  CastID        – nominated cast member.
//  NominationFee – fee in minor units, snapshot at nomination time.
//  CreatedAt     – when the nomination was captured.
type Nomination struct {
	ID            uint64    // nominations.id
	SessionID     uint64    // nominations.session_id
	CastID        uint64    // nominations.cast_id
	NominationFee int64     // nominations.nomination_fee
	CreatedAt     time.Time // nominations.created_at
}
