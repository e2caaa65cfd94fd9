package application

import "time"

// SeedUsers returns the demo roster: one admin, one trainer and one trainee assigned to that trainer.
func SeedUsers() []User {
	trainerID := 2
	return []User{
		{ID: 1, Email: "admin@company.com", Username: "admin", Name: "System Administrator", Password: "admin123", Role: RoleAdmin},
		{ID: 2, Email: "trainer@company.com", Username: "jtrainer", Name: "John Trainer", Password: "trainer123", Role: RoleTrainer},
		{ID: 3, Email: "trainee@company.com", Username: "sstudent", Name: "Sarah Student", Password: "trainee123", Role: RoleTrainee, AssignedTrainer: &trainerID},
	}
}

// SeedSessions returns the demo sessions relative to now: one upcoming and one completed yesterday.
func SeedSessions(now time.Time) []Session {
	yesterday := now.Add(-24 * time.Hour)
	return []Session{
		{
			ID:          1,
			Title:       "React Fundamentals",
			Description: "Learn the basics of React development",
			Trainer:     2,
			Trainees:    []int{3},
			StartTime:   now.Add(2 * time.Hour),
			Duration:    120,
			Status:      StatusScheduled,
			ClassLink:   "https://meet.google.com/abc-defg-hij",
			Attendance:  map[int]Attendance{},
		},
		{
			ID:          2,
			Title:       "JavaScript Advanced",
			Description: "Advanced JavaScript concepts and patterns",
			Trainer:     2,
			Trainees:    []int{3},
			StartTime:   yesterday,
			Duration:    90,
			Status:      StatusCompleted,
			ClassLink:   "https://meet.google.com/xyz-uvwx-yz",
			Attendance:  map[int]Attendance{3: {Present: true, JoinedAt: &yesterday}},
		},
	}
}
