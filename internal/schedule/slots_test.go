package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(repo *fakeScheduleRepo, booked *fakeBookedSource) *Generator {
	return NewGenerator(NewCalendar(repo), repo, booked)
}

func TestGenerateSlotsTilesRanges(t *testing.T) {
	providerID := uuid.New()
	repo := &fakeScheduleRepo{windows: standardWeek(providerID)}
	gen := newTestGenerator(repo, &fakeBookedSource{})

	slots, err := gen.GenerateSlots(context.Background(), providerID, monday, 30, false)
	require.NoError(t, err)

	// 09:00-12:00 gives 6 slots, 13:00-17:00 gives 8.
	require.Len(t, slots, 14)

	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(11*time.Hour+30*time.Minute), slots[5].Start)
	assert.Equal(t, monday.Add(13*time.Hour), slots[6].Start)
	assert.Equal(t, monday.Add(16*time.Hour+30*time.Minute), slots[13].Start)

	for _, s := range slots {
		assert.True(t, s.Available, "expected every slot free on an empty day")
		assert.Empty(t, s.Reason)
	}
}

func TestGenerateSlotsDropsShortRemainder(t *testing.T) {
	providerID := uuid.New()
	repo := &fakeScheduleRepo{windows: []WorkingWindow{{
		ProviderID: providerID,
		Weekday:    time.Monday,
		StartMin:   9 * 60,
		EndMin:     10*60 + 50, // 110 minutes
	}}}
	gen := newTestGenerator(repo, &fakeBookedSource{})

	slots, err := gen.GenerateSlots(context.Background(), providerID, monday, 45, false)
	require.NoError(t, err)

	// 110 / 45 leaves a 20-minute remainder that must not become a slot.
	require.Len(t, slots, 2)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+45*time.Minute), slots[1].Start)
}

func TestGenerateSlotsMarksBooked(t *testing.T) {
	providerID := uuid.New()
	repo := &fakeScheduleRepo{windows: standardWeek(providerID)}
	booked := &fakeBookedSource{intervals: []BookedInterval{
		// A 45-minute booking straddling two 30-minute slots.
		{Start: monday.Add(9*time.Hour + 15*time.Minute), End: monday.Add(10 * time.Hour)},
	}}
	gen := newTestGenerator(repo, booked)

	slots, err := gen.GenerateSlots(context.Background(), providerID, monday, 30, false)
	require.NoError(t, err)
	require.Len(t, slots, 14)

	// 09:00 and 09:30 collide with the booking, 10:00 touches its end and is free.
	assert.False(t, slots[0].Available)
	assert.Equal(t, ReasonBooked, slots[0].Reason)
	assert.False(t, slots[1].Available)
	assert.Equal(t, ReasonBooked, slots[1].Reason)
	assert.True(t, slots[2].Available)
}

func TestGenerateSlotsEmergencyReserved(t *testing.T) {
	providerID := uuid.New()
	window := WorkingWindow{
		ProviderID:        providerID,
		Weekday:           time.Monday,
		StartMin:          9 * 60,
		EndMin:            12 * 60,
		EmergencyStartMin: intPtr(11 * 60),
		EmergencyEndMin:   intPtr(12 * 60),
	}
	repo := &fakeScheduleRepo{windows: []WorkingWindow{window}}
	gen := newTestGenerator(repo, &fakeBookedSource{})

	slots, err := gen.GenerateSlots(context.Background(), providerID, monday, 30, false)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for _, s := range slots[:4] {
		assert.True(t, s.Available)
	}
	for _, s := range slots[4:] {
		assert.False(t, s.Available)
		assert.Equal(t, ReasonEmergencyReserved, s.Reason)
	}

	// Urgent callers see the reserved slots as free.
	urgentSlots, err := gen.GenerateSlots(context.Background(), providerID, monday, 30, true)
	require.NoError(t, err)
	for _, s := range urgentSlots {
		assert.True(t, s.Available)
	}
}

func TestGenerateSlotsBookedWinsOverEmergency(t *testing.T) {
	providerID := uuid.New()
	window := WorkingWindow{
		ProviderID:        providerID,
		Weekday:           time.Monday,
		StartMin:          9 * 60,
		EndMin:            12 * 60,
		EmergencyStartMin: intPtr(11 * 60),
		EmergencyEndMin:   intPtr(12 * 60),
	}
	repo := &fakeScheduleRepo{windows: []WorkingWindow{window}}
	booked := &fakeBookedSource{intervals: []BookedInterval{
		{Start: monday.Add(11 * time.Hour), End: monday.Add(11*time.Hour + 30*time.Minute)},
	}}
	gen := newTestGenerator(repo, booked)

	slots, err := gen.GenerateSlots(context.Background(), providerID, monday, 30, false)
	require.NoError(t, err)

	assert.Equal(t, ReasonBooked, slots[4].Reason, "booked should shadow emergency_reserved")
	assert.Equal(t, ReasonEmergencyReserved, slots[5].Reason)
}

func TestGenerateSlotsInvalidDuration(t *testing.T) {
	gen := newTestGenerator(&fakeScheduleRepo{}, &fakeBookedSource{})

	_, err := gen.GenerateSlots(context.Background(), uuid.New(), monday, 0, false)
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCheckInterval(t *testing.T) {
	providerID := uuid.New()
	windows := standardWeek(providerID)
	windows[4].EmergencyStartMin = intPtr(16 * 60) // Friday 16:00-17:00
	windows[4].EmergencyEndMin = intPtr(17 * 60)

	repo := &fakeScheduleRepo{
		windows: windows,
		exceptions: []Exception{{
			ProviderID: providerID,
			StartDate:  monday.AddDate(0, 0, 2), // Wednesday off
			EndDate:    monday.AddDate(0, 0, 2),
			Approved:   true,
			Kind:       ExceptionSick,
		}},
	}
	booked := &fakeBookedSource{intervals: []BookedInterval{
		{Start: monday.Add(10 * time.Hour), End: monday.Add(10*time.Hour + 30*time.Minute)},
	}}
	gen := newTestGenerator(repo, booked)
	friday := monday.AddDate(0, 0, 4)

	tests := []struct {
		name   string
		start  time.Time
		mins   int
		urgent bool
		wantOK bool
		reason SlotReason
	}{
		{"free morning slot", monday.Add(9 * time.Hour), 30, false, true, ""},
		{"collides with booking", monday.Add(10*time.Hour + 15*time.Minute), 30, false, false, ReasonBooked},
		{"during lunch break", monday.Add(12*time.Hour + 15*time.Minute), 30, false, false, ReasonOutsideHours},
		{"before opening", monday.Add(7 * time.Hour), 30, false, false, ReasonOutsideHours},
		{"spills past closing", monday.Add(16*time.Hour + 45*time.Minute), 30, false, false, ReasonOutsideHours},
		{"exception day", monday.AddDate(0, 0, 2).Add(9 * time.Hour), 30, false, false, ReasonOnException},
		{"emergency window routine", friday.Add(16 * time.Hour), 30, false, false, ReasonEmergencyReserved},
		{"emergency window urgent", friday.Add(16 * time.Hour), 30, true, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason, err := gen.CheckInterval(context.Background(), providerID, tt.start, tt.mins, tt.urgent)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
