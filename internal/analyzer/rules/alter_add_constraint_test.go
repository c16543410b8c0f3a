package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davebowl/Canna-spot-mobile/internal/analyzer"
	"github.com/davebowl/Canna-spot-mobile/internal/analyzer/rules"
)

func TestForeignKeyRule_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		sql          string
		wantCount    int
		wantSeverity analyzer.Severity
		wantTable    string
	}{
		{
			name: "create table referencing another is LOW on the referenced table",
			sql: `CREATE TABLE video_comment (id SERIAL PRIMARY KEY,
				video_id INTEGER REFERENCES video (id), user_id INTEGER REFERENCES "user" (id),
				parent_id INTEGER REFERENCES video (id));`,
			wantCount:    2,
			wantSeverity: analyzer.Low,
			wantTable:    "video",
		},
		{
			name: "table level foreign key",
			sql: `CREATE TABLE follow (follower_id INTEGER,
				FOREIGN KEY (follower_id) REFERENCES "user" (id));`,
			wantCount:    1,
			wantSeverity: analyzer.Low,
			wantTable:    "user",
		},
		{
			name:         "alter add foreign key is HIGH",
			sql:          `ALTER TABLE video ADD CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES "user" (id);`,
			wantCount:    1,
			wantSeverity: analyzer.High,
			wantTable:    "video",
		},
		{
			name: "alter add foreign key NOT VALID is safe",
			sql:  `ALTER TABLE video ADD CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES "user" (id) NOT VALID;`,
		},
		{
			name:         "add column with references is HIGH",
			sql:          `ALTER TABLE video ADD COLUMN owner_id INTEGER REFERENCES "user" (id);`,
			wantCount:    1,
			wantSeverity: analyzer.High,
			wantTable:    "video",
		},
		{
			name: "create table without foreign keys",
			sql:  `CREATE TABLE sponsor (id SERIAL PRIMARY KEY, name VARCHAR(100));`,
		},
	}

	rule := rules.NewForeignKeyRule()
	assert.Equal(t, "foreign-key-lock", rule.ID())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := checkOne(t, rule, tt.sql, nil)
			require.Len(t, findings, tt.wantCount)

			if tt.wantCount > 0 {
				assert.Equal(t, tt.wantSeverity, findings[0].Severity)
				assert.Equal(t, tt.wantTable, findings[0].Table)
				assert.Equal(t, "SHARE ROW EXCLUSIVE", findings[0].LockType)
			}
		})
	}
}
