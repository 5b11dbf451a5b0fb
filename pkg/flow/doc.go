// Package flow implements the client side of a multi-step login against a
// remote identity backend.
//
// The backend tracks a partially authenticated login as an intermediate
// session. After every mutating call (verify email, choose organization,
// verify or register a factor) the client refetches the session together with
// the chosen organization's login policy and asks the router which view the
// user must complete next. Once the router reports StepFinishLogin the
// intermediate session is exchanged for an access/refresh token pair.
//
// The router and the policy evaluator are pure functions over an already
// fetched (session, organization) snapshot. All network traffic goes through
// the Backend interface; Service orchestrates the calls and enforces the
// refetch-before-route rule.
package flow
