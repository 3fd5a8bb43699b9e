package driver

// Graph layout:
//
//	(:Contact)-[:MEMBER_OF]->(:Organization)
//	(:Attendance)-[:RECORDED_FOR]->(:Contact)
//	(:Dismissal {pair_key})
//
// Contacts and attendance also carry their parent id as a property so
// listings need no traversal.

var IndexQueries = []string{
	"CREATE INDEX ON :Organization(id);",
	"CREATE INDEX ON :Contact(id);",
	"CREATE INDEX ON :Contact(organization_id);",
	"CREATE INDEX ON :Attendance(id);",
	"CREATE INDEX ON :Attendance(contact_id);",
	"CREATE INDEX ON :Dismissal(pair_key);",
	"CREATE CONSTRAINT ON (n:Organization) ASSERT n.id IS UNIQUE;",
	"CREATE CONSTRAINT ON (n:Contact) ASSERT n.id IS UNIQUE;",
	"CREATE CONSTRAINT ON (n:Attendance) ASSERT n.id IS UNIQUE;",
}

const (
	SaveOrganizationQuery = `
		CREATE (o:Organization {id: $id})
		SET o.name = $name,
			o.city = $city,
			o.state = $state,
			o.type = $type,
			o.conference = $conference,
			o.division = $division,
			o.version = $version
		RETURN o.id AS id
	`

	SaveContactQuery = `
		MATCH (o:Organization {id: $organization_id})
		CREATE (c:Contact {id: $id})-[:MEMBER_OF]->(o)
		SET c.organization_id = $organization_id,
			c.first_name = $first_name,
			c.last_name = $last_name,
			c.title = $title,
			c.email = $email,
			c.phone = $phone,
			c.version = $version
		RETURN c.id AS id
	`

	SaveAttendanceQuery = `
		MATCH (c:Contact {id: $contact_id})
		CREATE (a:Attendance {id: $id})-[:RECORDED_FOR]->(c)
		SET a.contact_id = $contact_id,
			a.event = $event,
			a.attended_on = $attended_on
		RETURN a.id AS id
	`

	ListOrganizationsQuery = `
		MATCH (o:Organization)
		RETURN o.id AS id, o.name AS name, o.city AS city, o.state AS state,
			o.type AS type, o.conference AS conference, o.division AS division,
			o.version AS version
		ORDER BY o.id
	`

	GetOrganizationQuery = `
		MATCH (o:Organization {id: $id})
		RETURN o.id AS id, o.name AS name, o.city AS city, o.state AS state,
			o.type AS type, o.conference AS conference, o.division AS division,
			o.version AS version
	`

	ListContactsQuery = `
		MATCH (c:Contact)
		RETURN c.id AS id, c.organization_id AS organization_id,
			c.first_name AS first_name, c.last_name AS last_name,
			c.title AS title, c.email AS email, c.phone AS phone,
			c.version AS version
		ORDER BY c.organization_id, c.id
	`

	GetContactQuery = `
		MATCH (c:Contact {id: $id})
		RETURN c.id AS id, c.organization_id AS organization_id,
			c.first_name AS first_name, c.last_name AS last_name,
			c.title AS title, c.email AS email, c.phone AS phone,
			c.version AS version
	`

	ListContactsOfOrganizationQuery = `
		MATCH (c:Contact)-[:MEMBER_OF]->(:Organization {id: $parent_id})
		RETURN c.id AS id, trim(c.first_name + ' ' + c.last_name) AS label
		ORDER BY c.id
	`

	ListAttendanceOfContactQuery = `
		MATCH (a:Attendance)-[:RECORDED_FOR]->(:Contact {id: $parent_id})
		RETURN a.id AS id, a.event AS label
		ORDER BY a.id
	`

	UpdateOrganizationFieldsQuery = `
		MATCH (o:Organization {id: $id})
		SET o += $fields, o.version = coalesce(o.version, 0) + 1
		RETURN o.id AS id
	`

	UpdateContactFieldsQuery = `
		MATCH (c:Contact {id: $id})
		SET c += $fields, c.version = coalesce(c.version, 0) + 1
		RETURN c.id AS id
	`

	ReassignContactsQuery = `
		MATCH (new:Organization {id: $new_id})
		OPTIONAL MATCH (c:Contact)-[r:MEMBER_OF]->(:Organization {id: $old_id})
		DELETE r
		WITH new, c
		WHERE c IS NOT NULL
		CREATE (c)-[:MEMBER_OF]->(new)
		SET c.organization_id = $new_id, c.version = coalesce(c.version, 0) + 1
		RETURN count(c) AS moved
	`

	ReassignAttendanceQuery = `
		MATCH (new:Contact {id: $new_id})
		OPTIONAL MATCH (a:Attendance)-[r:RECORDED_FOR]->(:Contact {id: $old_id})
		DELETE r
		WITH new, a
		WHERE a IS NOT NULL
		CREATE (a)-[:RECORDED_FOR]->(new)
		SET a.contact_id = $new_id
		RETURN count(a) AS moved
	`

	CountContactsOfOrganizationQuery = `
		MATCH (o:Organization {id: $id})
		OPTIONAL MATCH (c:Contact)-[:MEMBER_OF]->(o)
		RETURN count(c) AS dependents
	`

	CountAttendanceOfContactQuery = `
		MATCH (c:Contact {id: $id})
		OPTIONAL MATCH (a:Attendance)-[:RECORDED_FOR]->(c)
		RETURN count(a) AS dependents
	`

	DeleteOrganizationQuery = `
		MATCH (o:Organization {id: $id})
		DETACH DELETE o
		RETURN count(*) AS deleted
	`

	DeleteContactQuery = `
		MATCH (c:Contact {id: $id})
		DETACH DELETE c
		RETURN count(*) AS deleted
	`

	DeleteAttendanceQuery = `
		MATCH (a:Attendance {id: $id})
		DETACH DELETE a
		RETURN count(*) AS deleted
	`

	ListDismissalsQuery = `
		MATCH (d:Dismissal)
		RETURN d.pair_key AS pair_key
		ORDER BY d.pair_key
	`

	SaveDismissalQuery = `
		MERGE (d:Dismissal {pair_key: $pair_key})
		ON CREATE SET d.dismissed_at = $dismissed_at
		RETURN d.pair_key AS pair_key
	`

	ClearDismissalsQuery = `
		MATCH (d:Dismissal)
		DELETE d
	`
)
