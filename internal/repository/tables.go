package repository

import lq "github.com/noah-isme/school-records-api/pkg/listquery"

// Filterable tables. Field names are the camelCase names used by clients;
// secrets such as users.password_hash are never registered.
var (
	studentsTable = lq.NewTable("students", "s",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("nisn", "nisn", lq.KindText),
		lq.Def("name", "name", lq.KindText),
		lq.Def("dob", "dob", lq.KindDate),
		lq.Def("guardianContact", "guardian_contact", lq.KindText),
		lq.Def("isActive", "is_active", lq.KindBool),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
	classesTable = lq.NewTable("classes", "c",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("name", "name", lq.KindText),
		lq.Def("year", "year", lq.KindNumber),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
	rolesTable = lq.NewTable("roles", "r",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("name", "name", lq.KindText),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
	usersTable = lq.NewTable("users", "u",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("name", "name", lq.KindText),
		lq.Def("email", "email", lq.KindText),
		lq.Def("bio", "bio", lq.KindText),
		lq.Def("isActive", "is_active", lq.KindBool),
		lq.Def("roleId", "role_id", lq.KindNumber),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
	enrollmentsTable = lq.NewTable("enrollments", "e",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("studentId", "student_id", lq.KindNumber),
		lq.Def("classId", "class_id", lq.KindNumber),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
	gradesTable = lq.NewTable("grades", "g",
		lq.Def("id", "id", lq.KindNumber),
		lq.Def("studentId", "student_id", lq.KindNumber),
		lq.Def("subject", "subject", lq.KindText),
		lq.Def("term", "term", lq.KindText),
		lq.Def("score", "score", lq.KindNumber),
		lq.Def("createdAt", "created_at", lq.KindDate),
		lq.Def("updatedAt", "updated_at", lq.KindDate),
	)
)

const (
	studentColumns = `s.id, s.nisn, s.name, s.dob, s.guardian_contact, s.is_active, s.created_at, s.updated_at`
	classColumns   = `c.id, c.name, c.year, c.created_at, c.updated_at`
	roleColumns    = `r.id, r.name, r.created_at, r.updated_at`
	userColumns    = `u.id, u.name, u.email, u.bio, u.is_active, u.role_id, COALESCE(r.id, 0) AS "role.id", COALESCE(r.name, '') AS "role.name", u.created_at, u.updated_at`
	userFrom       = `users u LEFT JOIN roles r ON r.id = u.role_id`
	enrollmentCols = `e.id, e.student_id, e.class_id, COALESCE(s.name, '') AS "student.name", COALESCE(s.nisn, '') AS "student.nisn", COALESCE(c.name, '') AS "class.name", COALESCE(c.year, 0) AS "class.year", e.created_at, e.updated_at`
	enrollmentFrom = `enrollments e LEFT JOIN students s ON s.id = e.student_id LEFT JOIN classes c ON c.id = e.class_id`
	gradeColumns   = `g.id, g.student_id, g.subject, g.term, g.score, COALESCE(s.name, '') AS "student.name", COALESCE(s.nisn, '') AS "student.nisn", g.created_at, g.updated_at`
	gradeFrom      = `grades g LEFT JOIN students s ON s.id = g.student_id`
)

var (
	studentListSpec = lq.Spec{Base: studentsTable, Columns: studentColumns, DefaultSort: "updatedAt", DefaultDesc: true}
	classListSpec   = lq.Spec{Base: classesTable, Columns: classColumns, DefaultSort: "updatedAt", DefaultDesc: true}
	roleListSpec    = lq.Spec{Base: rolesTable, Columns: roleColumns, DefaultSort: "updatedAt", DefaultDesc: true}
	userListSpec    = lq.Spec{
		Base:        usersTable,
		Joins:       lq.Relations{"role": rolesTable},
		Columns:     userColumns,
		From:        userFrom,
		DefaultSort: "updatedAt",
		DefaultDesc: true,
	}
	enrollmentListSpec = lq.Spec{
		Base:        enrollmentsTable,
		Joins:       lq.Relations{"class": classesTable, "student": studentsTable},
		Columns:     enrollmentCols,
		From:        enrollmentFrom,
		DefaultSort: "updatedAt",
		DefaultDesc: true,
	}
	gradeListSpec = lq.Spec{
		Base:        gradesTable,
		Joins:       lq.Relations{"student": studentsTable},
		Columns:     gradeColumns,
		From:        gradeFrom,
		DefaultSort: "updatedAt",
		DefaultDesc: true,
	}
)
