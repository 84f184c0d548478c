package appsync

import "taskdeck/internal/graphql"

const accountFields = `
fragment AccountFields on Account {
  sub
  email
  username
  name
  isAdmin
  tasks { taskId permission position }
}`

const taskFields = `
fragment TaskFields on Task {
  id
  title
  description
  completedAt
  owner
  subtasks { id title done }
}`

var (
	opListAccounts = graphql.Operation{
		Name: "ListAccounts",
		Document: `query ListAccounts($limit: Int, $nextToken: String) {
  listAccounts(limit: $limit, nextToken: $nextToken) {
    items { ...AccountFields }
    nextToken
  }
}` + accountFields,
	}

	opCreateAccount = graphql.Operation{
		Name: "CreateAccount",
		Document: `mutation CreateAccount($input: CreateAccountInput!) {
  createAccount(input: $input) { ...AccountFields }
}` + accountFields,
	}

	opUpdateAccount = graphql.Operation{
		Name: "UpdateAccount",
		Document: `mutation UpdateAccount($input: UpdateAccountInput!) {
  updateAccount(input: $input) { ...AccountFields }
}` + accountFields,
	}

	opAddAccountTasks = graphql.Operation{
		Name: "AddAccountTasks",
		Document: `mutation AddAccountTasks($sub: ID!, $tasks: [AccountTaskInput!]!) {
  addAccountTasks(sub: $sub, tasks: $tasks) { ...AccountFields }
}` + accountFields,
	}

	opRemoveAccountTask = graphql.Operation{
		Name: "RemoveAccountTask",
		Document: `mutation RemoveAccountTask($sub: ID!, $taskId: ID!) {
  removeAccountTask(sub: $sub, taskId: $taskId) { ...AccountFields }
}` + accountFields,
	}

	opListTasks = graphql.Operation{
		Name: "ListTasks",
		Document: `query ListTasks($limit: Int, $nextToken: String) {
  listTasks(limit: $limit, nextToken: $nextToken) {
    items { ...TaskFields }
    nextToken
  }
}` + taskFields,
	}

	opCreateTask = graphql.Operation{
		Name: "CreateTask",
		Document: `mutation CreateTask($input: CreateTaskInput!) {
  createTask(input: $input) { ...TaskFields }
}` + taskFields,
	}

	opUpdateTask = graphql.Operation{
		Name: "UpdateTask",
		Document: `mutation UpdateTask($input: UpdateTaskInput!) {
  updateTask(input: $input) { ...TaskFields }
}` + taskFields,
	}

	opDeleteTask = graphql.Operation{
		Name: "DeleteTask",
		Document: `mutation DeleteTask($input: DeleteTaskInput!) {
  deleteTask(input: $input) { id }
}`,
	}
)
