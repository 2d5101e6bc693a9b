package neo4jstore

import "github.com/anatolykoptev/go-vk/graphstore"

// Labels and relationship types are never interpolated from input: every
// statement is a fixed template selected by a closed enum.

const (
	upsertUserQuery = `
		MERGE (u:User {id: $id})
		SET u += $props`

	upsertGroupQuery = `
		MERGE (g:Group {id: $id})
		SET g += $props`
)

var edgeQueries = map[graphstore.Kind]string{
	graphstore.Follows: `
		MERGE (a:User {id: $source})
		MERGE (b:User {id: $target})
		MERGE (a)-[:FOLLOWS]->(b)`,
	graphstore.SubscribedTo: `
		MERGE (a:User {id: $source})
		MERGE (b:Group {id: $target})
		MERGE (a)-[:SUBSCRIBED_TO]->(b)`,
	graphstore.FollowedBy: `
		MERGE (a:User {id: $source})
		MERGE (b:User {id: $target})
		MERGE (a)-[:FOLLOWED_BY]->(b)`,
}

var nodeQueries = map[graphstore.Label]string{
	graphstore.LabelUser:  `MATCH (n:User {id: $id}) RETURN properties(n) AS props`,
	graphstore.LabelGroup: `MATCH (n:Group {id: $id}) RETURN properties(n) AS props`,
}

var edgesQueries = map[graphstore.Label]string{
	graphstore.LabelUser: `
		MATCH (n:User {id: $id})-[r:FOLLOWS|SUBSCRIBED_TO|FOLLOWED_BY]-()
		RETURN type(r) AS kind, startNode(r).id AS source, endNode(r).id AS target`,
	graphstore.LabelGroup: `
		MATCH (n:Group {id: $id})<-[r:SUBSCRIBED_TO]-()
		RETURN type(r) AS kind, startNode(r).id AS source, endNode(r).id AS target`,
}

var schemaStatements = []string{
	`CREATE CONSTRAINT vk_user_id IF NOT EXISTS FOR (n:User) REQUIRE n.id IS UNIQUE`,
	`CREATE CONSTRAINT vk_group_id IF NOT EXISTS FOR (n:Group) REQUIRE n.id IS UNIQUE`,
}
