package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentState(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  PaymentStatus
	}{
		{"nothing paid", 10000, 0, PaymentStatusNotPaid},
		{"partially paid", 10000, 4000, PaymentStatusPartiallyPaid},
		{"fully paid", 10000, 10000, PaymentStatusPaid},
		{"zero total never paid", 0, 0, PaymentStatusNotPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := TestRecord{TotalCents: tc.total, PaidCents: tc.paid}
			assert.Equal(t, tc.want, rec.PaymentState())
		})
	}
}

func TestDueCentsNeverNegative(t *testing.T) {
	rec := TestRecord{TotalCents: 10000, PaidCents: 12000}
	assert.Equal(t, int64(0), rec.DueCents())
}

func TestBucketFor(t *testing.T) {
	cases := map[Status]Bucket{
		StatusOrdered:          BucketPending,
		StatusApproved:         BucketPending,
		StatusSampleProcessing: BucketInProgress,
		StatusSampleTaken:      BucketInProgress,
		StatusReported:         BucketReadyForResults,
		StatusConfirmed:        BucketCompleted,
		StatusCancelled:        BucketCompleted,
	}
	for status, want := range cases {
		assert.Equal(t, want, BucketFor(status), "status %s", status)
	}
}
