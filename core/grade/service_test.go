package grade_test

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/roster"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var (
	ctx     = context.Background()
	teacher = core.Actor{ID: "t1", Type: core.ActorTeacher, Name: "Mr. Kabongo"}
	student = core.Actor{ID: "s1", Type: core.ActorStudent, Name: "Junior"}
)

func setup(t *testing.T) (*grade.Service, testutil.ClassSeeder) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	rosterRepo := inmemdb.NewRosterRepository(db)
	rosterSvc := roster.NewService(rosterRepo)
	svc := grade.NewService(inmemdb.NewGradeRepository(db), rosterSvc, testutil.NopLogger{})
	return svc, rosterRepo
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{0, "F"},
		{29.9, "F"},
		{30, "D"},
		{39.9, "D"},
		{40, "C"},
		{49.9, "C"},
		{50, "C+"},
		{59.9, "C+"},
		{60, "B"},
		{69.9, "B"},
		{70, "B+"},
		{79.9, "B+"},
		{80, "A"},
		{89.9, "A"},
		{90, "A+"},
		{100, "A+"},
	}
	for _, tt := range tests {
		if got := grade.LetterGrade(tt.percentage); got != tt.want {
			t.Errorf("LetterGrade(%v) = %q; want %q", tt.percentage, got, tt.want)
		}
	}
}

func TestService_RecordOne(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1")

	nr := grade.NewRecord{
		StudentID:       "s1",
		ClassID:         "c1",
		AssessmentType:  grade.TypeQuiz,
		AssessmentID:    "q1",
		AssessmentTitle: "Quiz 1",
		MaxMarks:        50,
		ObtainedMarks:   45,
	}
	rec, err := svc.RecordOne(ctx, teacher, nr)
	if err != nil {
		t.Fatalf("RecordOne() failed: %v", err)
	}
	if rec.Percentage != 90 || rec.LetterGrade != "A+" {
		t.Errorf("band = (%v, %q); want (90, A+)", rec.Percentage, rec.LetterGrade)
	}
	if rec.GradedBy != teacher.ID {
		t.Errorf("GradedBy = %q; want %q", rec.GradedBy, teacher.ID)
	}
	if rec.IsPublished {
		t.Error("new records must start unpublished")
	}

	// same (student, class, type, assessment) is rejected
	if _, err = svc.RecordOne(ctx, teacher, nr); err != grade.ErrRecordExists {
		t.Errorf("RecordOne() error = %v; want ErrRecordExists", err)
	}

	// another assessment id is a new record
	nr.AssessmentID = "q2"
	if _, err = svc.RecordOne(ctx, teacher, nr); err != nil {
		t.Errorf("RecordOne() for another assessment failed: %v", err)
	}
}

func TestService_RecordBulk(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1", "s2", "s3")

	br := grade.BulkRecords{
		ClassID:         "c1",
		AssessmentType:  grade.TypeMidterm,
		AssessmentTitle: "Midterm Exam",
		MaxMarks:        100,
		Rows: []grade.BulkRow{
			{StudentID: "s1", ObtainedMarks: 85},
			{StudentID: "s2", ObtainedMarks: 61.5},
			{StudentID: "s1", ObtainedMarks: 10}, // duplicate: first one wins
			{StudentID: "", ObtainedMarks: 50},   // malformed: no student
			{StudentID: "s3", ObtainedMarks: 120}, // malformed: above max
		},
	}
	res, err := svc.RecordBulk(ctx, teacher, br)
	if err != nil {
		t.Fatalf("RecordBulk() failed: %v", err)
	}
	if len(res.Created) != 2 || res.Skipped != 3 {
		t.Fatalf("RecordBulk() = (created=%d, skipped=%d); want (2, 3)", len(res.Created), res.Skipped)
	}

	// all created rows share one generated assessment id
	aid := res.Created[0].AssessmentID
	if aid == "" {
		t.Error("RecordBulk() did not generate an assessment id")
	}
	for _, rec := range res.Created {
		if rec.AssessmentID != aid {
			t.Errorf("AssessmentID = %q; want %q (shared across batch)", rec.AssessmentID, aid)
		}
	}

	// s1 kept the first occurrence
	recs, err := svc.Query(ctx, teacher, grade.QueryFilter{StudentID: "s1", ClassID: "c1"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Query() returned %d records; want 1", len(recs))
	}
	if recs[0].ObtainedMarks != 85 {
		t.Errorf("ObtainedMarks = %v; want 85 (first occurrence wins)", recs[0].ObtainedMarks)
	}

	// unknown class
	br.ClassID = "nope"
	if _, err = svc.RecordBulk(ctx, teacher, br); err != roster.ErrClassNotFound {
		t.Errorf("RecordBulk() error = %v; want ErrClassNotFound", err)
	}
}

func TestService_Query_publishGating(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1")

	published, err := svc.RecordOne(ctx, teacher, grade.NewRecord{
		StudentID: "s1", ClassID: "c1", AssessmentType: grade.TypeQuiz,
		AssessmentID: "q1", AssessmentTitle: "Quiz 1", MaxMarks: 20, ObtainedMarks: 15,
	})
	if err != nil {
		t.Fatalf("RecordOne() failed: %v", err)
	}
	if _, err = svc.Publish(ctx, published.ID, true); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	if _, err = svc.RecordOne(ctx, teacher, grade.NewRecord{
		StudentID: "s1", ClassID: "c1", AssessmentType: grade.TypeQuiz,
		AssessmentID: "q2", AssessmentTitle: "Quiz 2", MaxMarks: 20, ObtainedMarks: 7,
	}); err != nil {
		t.Fatalf("RecordOne() failed: %v", err)
	}

	// staff see everything
	recs, err := svc.Query(ctx, teacher, grade.QueryFilter{ClassID: "c1"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("staff Query() returned %d records; want 2", len(recs))
	}

	// students only see their own published records, whatever filter they send
	recs, err = svc.Query(ctx, student, grade.QueryFilter{ClassID: "c1", StudentID: "someone-else"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("student Query() returned %d records; want 1", len(recs))
	}
	if recs[0].ID != published.ID {
		t.Errorf("student Query() returned %q; want the published record %q", recs[0].ID, published.ID)
	}
}

func TestService_Update(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1")

	rec, err := svc.RecordOne(ctx, teacher, grade.NewRecord{
		StudentID: "s1", ClassID: "c1", AssessmentType: grade.TypeQuiz,
		AssessmentID: "q1", AssessmentTitle: "Quiz 1", MaxMarks: 50, ObtainedMarks: 45,
	})
	if err != nil {
		t.Fatalf("RecordOne() failed: %v", err)
	}

	marks := 20.0
	updated, err := svc.Update(ctx, teacher, rec.ID, grade.UpdateRecord{ObtainedMarks: &marks})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Percentage != 40 || updated.LetterGrade != "C" {
		t.Errorf("band = (%v, %q); want (40, C) after update", updated.Percentage, updated.LetterGrade)
	}

	// marks above the stored max are rejected
	marks = 51
	if _, err = svc.Update(ctx, teacher, rec.ID, grade.UpdateRecord{ObtainedMarks: &marks}); err == nil {
		t.Error("Update() accepted marks above max")
	}

	// remarks alone leave the band untouched
	remarks := "needs improvement"
	updated, err = svc.Update(ctx, teacher, rec.ID, grade.UpdateRecord{Remarks: &remarks})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Percentage != 40 || updated.Remarks != remarks {
		t.Errorf("Update() = (%v, %q); want (40, %q)", updated.Percentage, updated.Remarks, remarks)
	}

	if _, err = svc.Update(ctx, teacher, "nope", grade.UpdateRecord{}); err != grade.ErrNotFound {
		t.Errorf("Update() error = %v; want ErrNotFound", err)
	}
}

func TestService_PublishBulk(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1", "s2")

	res, err := svc.RecordBulk(ctx, teacher, grade.BulkRecords{
		ClassID: "c1", AssessmentType: grade.TypeQuiz, AssessmentTitle: "Quiz 1", MaxMarks: 10,
		Rows: []grade.BulkRow{
			{StudentID: "s1", ObtainedMarks: 8},
			{StudentID: "s2", ObtainedMarks: 6},
		},
	})
	if err != nil {
		t.Fatalf("RecordBulk() failed: %v", err)
	}

	ids := []string{res.Created[0].ID, res.Created[1].ID, "nope"}
	count, err := svc.PublishBulk(ctx, ids, true)
	if err != nil {
		t.Fatalf("PublishBulk() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("PublishBulk() = %d; want 2 (unknown ids ignored)", count)
	}

	recs, err := svc.Query(ctx, student, grade.QueryFilter{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(recs) != 1 { // only s1's own record
		t.Errorf("student Query() returned %d records; want 1", len(recs))
	}
}

func TestService_Statistics(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1", "s2", "s3")

	if _, err := svc.RecordBulk(ctx, teacher, grade.BulkRecords{
		ClassID: "c1", AssessmentType: grade.TypeMidterm, AssessmentTitle: "Midterm", MaxMarks: 100,
		Rows: []grade.BulkRow{
			{StudentID: "s1", ObtainedMarks: 95}, // A+
			{StudentID: "s2", ObtainedMarks: 65}, // B
			{StudentID: "s3", ObtainedMarks: 20}, // F
		},
	}); err != nil {
		t.Fatalf("RecordBulk() failed: %v", err)
	}
	if _, err := svc.RecordBulk(ctx, teacher, grade.BulkRecords{
		ClassID: "c1", AssessmentType: grade.TypeQuiz, AssessmentTitle: "Quiz 1", MaxMarks: 10,
		Rows: []grade.BulkRow{
			{StudentID: "s1", ObtainedMarks: 8}, // A
		},
	}); err != nil {
		t.Fatalf("RecordBulk() failed: %v", err)
	}

	stats, err := svc.Statistics(ctx, "c1", "")
	if err != nil {
		t.Fatalf("Statistics() failed: %v", err)
	}
	if stats.TotalStudents != 3 {
		t.Errorf("TotalStudents = %d; want 3", stats.TotalStudents)
	}
	if stats.AveragePercentage != 65 { // (95+65+20+80)/4
		t.Errorf("AveragePercentage = %v; want 65", stats.AveragePercentage)
	}
	if stats.AverageGrade != "B" {
		t.Errorf("AverageGrade = %q; want B (band of the mean)", stats.AverageGrade)
	}
	wantDist := map[string]int{"A+": 1, "A": 1, "B+": 0, "B": 1, "C+": 0, "C": 0, "D": 0, "F": 1}
	for band, want := range wantDist {
		if got := stats.GradeDistribution[band]; got != want {
			t.Errorf("GradeDistribution[%s] = %d; want %d", band, got, want)
		}
	}
	if len(stats.AssessmentTypes) != 2 || stats.AssessmentTypes[0] != grade.TypeMidterm || stats.AssessmentTypes[1] != grade.TypeQuiz {
		t.Errorf("AssessmentTypes = %v; want [midterm quiz]", stats.AssessmentTypes)
	}

	// scoped to one assessment type
	stats, err = svc.Statistics(ctx, "c1", grade.TypeQuiz)
	if err != nil {
		t.Fatalf("Statistics() failed: %v", err)
	}
	if stats.TotalStudents != 1 || stats.AveragePercentage != 80 {
		t.Errorf("Statistics(quiz) = (%d, %v); want (1, 80)", stats.TotalStudents, stats.AveragePercentage)
	}

	// empty class
	stats, err = svc.Statistics(ctx, "empty", "")
	if err != nil {
		t.Fatalf("Statistics() failed: %v", err)
	}
	if stats.TotalStudents != 0 || stats.AveragePercentage != 0 || stats.AverageGrade != "F" {
		t.Errorf("Statistics(empty) = %+v; want zeroes with grade F", stats)
	}
}

func TestService_Delete(t *testing.T) {
	svc, seeder := setup(t)
	testutil.CreateClass(t, seeder, "c1", "Form 4 Math", "Mathematics", teacher.ID, "s1")

	rec, err := svc.RecordOne(ctx, teacher, grade.NewRecord{
		StudentID: "s1", ClassID: "c1", AssessmentType: grade.TypeQuiz,
		AssessmentID: "q1", AssessmentTitle: "Quiz 1", MaxMarks: 10, ObtainedMarks: 5,
	})
	if err != nil {
		t.Fatalf("RecordOne() failed: %v", err)
	}

	if err = svc.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = svc.GetByID(ctx, rec.ID); err != grade.ErrNotFound {
		t.Errorf("GetByID() error = %v; want ErrNotFound", err)
	}
	if err = svc.Delete(ctx, "nope"); err != grade.ErrNotFound {
		t.Errorf("Delete() error = %v; want ErrNotFound", err)
	}
}
