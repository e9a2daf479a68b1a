package notify

const (
	TplWelcome               = "welcome"
	TplBookingConfirmation   = "booking-confirmation"
	TplRideRequest           = "ride-request"
	TplRideAcceptedCustomer  = "ride-accepted-customer"
	TplRideAcceptedDriver    = "ride-accepted-driver"
	TplRideCompletedCustomer = "ride-completed-customer"
	TplTripSummaryAdmin      = "trip-summary-admin"
	TplRideCancelled         = "ride-cancelled"
	TplAccountUpdated        = "account-updated"
	TplRideAccepted          = "ride-accepted"
	TplRideAssigned          = "ride-assigned"
)

const signature = `<p>Best regards,<br>The {{.AppName}} Team</p>`

var templateSources = map[string]string{
	TplWelcome: `<h2>Welcome to {{.AppName}}, {{.name}}!</h2>
<p>Your account is ready. Book a ride any time and collect points on every completed trip.</p>` + signature,

	TplBookingConfirmation: `<h2>Booking Confirmation - {{.AppName}}</h2>
<p>Hello {{.customerName}},</p>
<p>Your ride has been booked.</p>
<ul>
<li><strong>Booking ID:</strong> {{.rideId}}</li>
<li><strong>Date:</strong> {{.bookingDate}}</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Vehicle:</strong> {{.vehicleType}}</li>
<li><strong>Estimated fare:</strong> ${{.fare}}</li>
</ul>
<p>Our drivers have been notified and will be in touch about pickup.</p>` + signature,

	TplRideRequest: `<h2>New Ride Request</h2>
<p>Hello {{.driverName}},</p>
<p>{{.customerName}} is looking for a ride.</p>
<ul>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Vehicle:</strong> {{.vehicleType}}</li>
<li><strong>Estimated fare:</strong> ${{.fare}}</li>
<li><strong>Ride ID:</strong> {{.rideId}}</li>
</ul>
<p>Open your dashboard to accept it.</p>` + signature,

	TplRideAcceptedCustomer: `<h2>Your Ride Has Been Accepted!</h2>
<p>Hello {{.customerName}},</p>
<p>{{.driverName}} is on the way.</p>
<ul>
<li><strong>Driver phone:</strong> {{.driverPhone}}</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Estimated arrival:</strong> {{.estimatedArrival}}</li>
</ul>` + signature,

	TplRideAcceptedDriver: `<h2>Ride Accepted - Customer Details</h2>
<p>Hello {{.driverName}},</p>
<ul>
<li><strong>Customer:</strong> {{.customerName}}</li>
<li><strong>Customer phone:</strong> {{.customerPhone}}</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Estimated arrival:</strong> {{.estimatedArrival}}</li>
<li><strong>Fare:</strong> ${{.fare}}</li>
</ul>` + signature,

	TplRideCompletedCustomer: `<h2>Ride Completed - Thank You!</h2>
<p>Hello {{.customerName}},</p>
<p>Your trip from {{.pickupLocation}} to {{.dropoffLocation}} with {{.driverName}} is complete.</p>
<p><strong>Fare:</strong> ${{.fare}}</p>
{{if .pointsEarned}}<p>You earned {{.pointsEarned}} points on this ride.</p>{{end}}` + signature,

	TplTripSummaryAdmin: `<h2>Trip Completed - Summary</h2>
<ul>
<li><strong>Ride ID:</strong> {{.rideId}}</li>
<li><strong>Driver:</strong> {{.driverName}} ({{.driverEmail}}, {{.driverPhone}})</li>
<li><strong>Customer:</strong> {{.customerName}} ({{.customerEmail}}, {{.customerPhone}})</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Vehicle:</strong> {{.vehicleType}}</li>
<li><strong>Fare:</strong> ${{.fare}}</li>
<li><strong>Completed:</strong> {{.completedAt}}</li>
<li><strong>Points awarded:</strong> {{.pointsAwarded}}</li>
</ul>`,

	TplRideCancelled: `<h2>Ride Cancelled</h2>
<p>Hello {{.driverName}},</p>
<p>The passenger cancelled the ride from {{.pickupLocation}} to {{.dropoffLocation}}.</p>` + signature,

	TplAccountUpdated: `<h2>Account Information Updated</h2>
<p>Hello {{.driverName}},</p>
<p><strong>{{.field}}</strong> was updated by {{.updatedBy}}.</p>
<p>New value: {{.newValue}}</p>
<p>Contact support if you did not expect this change.</p>` + signature,

	TplRideAccepted: `<h2>A Driver Has Been Assigned</h2>
<p>Hello {{.passengerName}},</p>
<ul>
<li><strong>Driver:</strong> {{.driverName}}</li>
<li><strong>Driver phone:</strong> {{.driverPhone}}</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Vehicle:</strong> {{.vehicleType}}</li>
<li><strong>Fare:</strong> ${{.fare}}</li>
</ul>` + signature,

	TplRideAssigned: `<h2>New Ride Assignment</h2>
<p>Hello {{.driverName}},</p>
<p>An administrator assigned you a ride.</p>
<ul>
<li><strong>Passenger:</strong> {{.passengerName}}</li>
<li><strong>Passenger phone:</strong> {{.passengerPhone}}</li>
<li><strong>Pickup:</strong> {{.pickupLocation}}</li>
<li><strong>Drop-off:</strong> {{.dropoffLocation}}</li>
<li><strong>Vehicle:</strong> {{.vehicleType}}</li>
<li><strong>Fare:</strong> ${{.fare}}</li>
</ul>` + signature,
}
